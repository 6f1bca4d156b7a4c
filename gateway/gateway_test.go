package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	ai "github.com/novelvision/llmgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns scripted outcomes and records the models it was asked for.
type fakeProvider struct {
	mu      sync.Mutex
	models  []string
	respond func(call int, model string) (*ai.Completion, error)
}

func (f *fakeProvider) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	f.mu.Lock()
	f.models = append(f.models, model)
	call := len(f.models)
	f.mu.Unlock()
	return f.respond(call, model)
}

func (f *fakeProvider) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.models...)
}

func succeedWith(text string) func(int, string) (*ai.Completion, error) {
	return func(int, string) (*ai.Completion, error) {
		return &ai.Completion{Text: text}, nil
	}
}

func failWith(err error) func(int, string) (*ai.Completion, error) {
	return func(int, string) (*ai.Completion, error) {
		return nil, err
	}
}

func providerConfig(id string, models ...string) ai.ProviderConfig {
	return ai.ProviderConfig{
		ID:          ai.Provider(id),
		Vendor:      ai.VendorCompat,
		EndpointURL: "http://127.0.0.1:1/v1",
		Models:      models,
		Timeout:     time.Second,
	}
}

func fastRetry(attempts int) *ai.RetryConfig {
	return &ai.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   1.0,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGateway wires fakes by provider ID; configs fix the priority order.
func newTestGateway(t *testing.T, cfg Config, fakes map[ai.Provider]*fakeProvider) *Gateway {
	t.Helper()
	if cfg.Retry == nil {
		cfg.Retry = fastRetry(3)
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	var opts []Option
	for id, f := range fakes {
		opts = append(opts, WithProviderClient(id, f))
	}
	g, err := New(cfg, opts...)
	require.NoError(t, err)
	return g
}

func newRequest(t *testing.T, opts ...ai.RequestOption) ai.ChatRequest {
	t.Helper()
	req, err := ai.NewChatRequest("Describe the heroine", opts...)
	require.NoError(t, err)
	return req
}

func TestNew(t *testing.T) {
	t.Run("rejects empty provider list", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := New(Config{Providers: []ai.ProviderConfig{
			providerConfig("a", "m"), providerConfig("a", "n"),
		}})
		assert.Error(t, err)
	})

	t.Run("keeps configured order", func(t *testing.T) {
		g, err := New(Config{Providers: []ai.ProviderConfig{
			providerConfig("b", "m"), providerConfig("a", "n"),
		}})
		require.NoError(t, err)
		assert.Equal(t, []ai.Provider{"b", "a"}, g.Providers())

		pool, err := g.Pool("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"n"}, pool)
	})
}

func TestQueryRetriesConnectionErrorsThenSucceeds(t *testing.T) {
	primary := &fakeProvider{respond: func(call int, model string) (*ai.Completion, error) {
		if call < 3 {
			return nil, ai.NewConnectionError(errors.New("connection reset by peer"))
		}
		return &ai.Completion{Text: "She has silver hair."}, nil
	}}
	backup := &fakeProvider{respond: succeedWith("backup")}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("primary", "m1", "m2", "m3"),
		providerConfig("backup", "b1"),
	}}, map[ai.Provider]*fakeProvider{"primary": primary, "backup": backup})

	result := g.Query(context.Background(), newRequest(t))

	require.True(t, result.OK(), "unexpected failure: %v", result.Err())
	assert.Equal(t, "She has silver hair.", result.Text)
	assert.Equal(t, ai.Provider("primary"), result.Provider)
	assert.Equal(t, 3, result.Attempts)

	// Every attempt advanced the rotation; the success reports attempt 3's model.
	assert.Equal(t, []string{"m2", "m3", "m1"}, primary.calls())
	assert.Equal(t, "m1", result.Model)
	assert.Empty(t, backup.calls())
}

func TestQueryFallsBackOnClientError(t *testing.T) {
	first := &fakeProvider{respond: failWith(ai.NewHTTPError(404, `{"error":"model not found"}`, 0, nil))}
	second := &fakeProvider{respond: succeedWith("from second")}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("first", "f1", "f2"),
		providerConfig("second", "s1"),
	}}, map[ai.Provider]*fakeProvider{"first": first, "second": second})

	result := g.Query(context.Background(), newRequest(t))

	require.True(t, result.OK())
	assert.Equal(t, "from second", result.Text)
	assert.Equal(t, ai.Provider("second"), result.Provider)
	assert.Equal(t, "s1", result.Model)
	assert.Len(t, first.calls(), 1)
	assert.Equal(t, 2, result.Attempts)
}

func TestQueryFallsBackOnNoChoices(t *testing.T) {
	first := &fakeProvider{respond: failWith(ai.NewNoChoicesError("first/f1"))}
	second := &fakeProvider{respond: succeedWith("ok")}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("first", "f1"),
		providerConfig("second", "s1"),
	}}, map[ai.Provider]*fakeProvider{"first": first, "second": second})

	result := g.Query(context.Background(), newRequest(t))
	require.True(t, result.OK())
	assert.Len(t, first.calls(), 1)
}

func TestQueryHintIsExclusive(t *testing.T) {
	hinted := &fakeProvider{respond: failWith(ai.NewTimeoutError(context.DeadlineExceeded))}
	other := &fakeProvider{respond: succeedWith("should not be used")}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("other", "o1"),
		providerConfig("hinted", "h1", "h2"),
	}}, map[ai.Provider]*fakeProvider{"hinted": hinted, "other": other})

	result := g.Query(context.Background(), newRequest(t, ai.WithProviderHint("hinted")))

	require.False(t, result.OK())
	f := result.Failure
	assert.Equal(t, ai.KindTimeout, f.Kind)
	assert.Equal(t, 3, f.Attempts)
	assert.Equal(t, ai.Provider("hinted"), f.Provider)
	assert.True(t, f.Exhausted)
	assert.Len(t, hinted.calls(), 3)
	assert.Empty(t, other.calls())
}

func TestQueryUnknownHintUsesPriorityOrder(t *testing.T) {
	first := &fakeProvider{respond: succeedWith("first")}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("first", "f1"),
	}}, map[ai.Provider]*fakeProvider{"first": first})

	result := g.Query(context.Background(), newRequest(t, ai.WithProviderHint("nonexistent")))
	require.True(t, result.OK())
	assert.Equal(t, ai.Provider("first"), result.Provider)
}

func TestQueryRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"connection error is retried", ai.NewConnectionError(errors.New("refused")), 3},
		{"timeout is retried", ai.NewTimeoutError(context.DeadlineExceeded), 3},
		{"rate limit is retried", ai.NewHTTPError(429, "slow down", 0, nil), 3},
		{"server error is retried", ai.NewHTTPError(503, "unavailable", 0, nil), 3},
		{"bad request is terminal", ai.NewHTTPError(400, "bad", 0, nil), 1},
		{"unauthorized is terminal", ai.NewHTTPError(401, "key", 0, nil), 1},
		{"no choices is terminal", ai.NewNoChoicesError(""), 1},
		{"unknown is terminal", ai.NewUnknownError(errors.New("decode")), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			only := &fakeProvider{respond: failWith(tt.err)}
			g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
				providerConfig("only", "m1", "m2"),
			}}, map[ai.Provider]*fakeProvider{"only": only})

			result := g.Query(context.Background(), newRequest(t))

			require.False(t, result.OK())
			assert.Len(t, only.calls(), tt.wantCalls)
			assert.Equal(t, tt.wantCalls, result.Failure.Attempts)
			assert.Equal(t, ai.KindOf(tt.err), result.Failure.Kind)
		})
	}
}

func TestQueryAllProvidersExhausted(t *testing.T) {
	a := &fakeProvider{respond: failWith(ai.NewConnectionError(errors.New("reset")))}
	b := &fakeProvider{respond: failWith(ai.NewHTTPError(429, `{"error":"quota"}`, 0, nil))}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("a", "a1"),
		providerConfig("b", "b1", "b2"),
	}}, map[ai.Provider]*fakeProvider{"a": a, "b": b})

	result := g.Query(context.Background(), newRequest(t))

	require.False(t, result.OK())
	f := result.Failure
	assert.Equal(t, 6, f.Attempts)
	assert.Equal(t, ai.KindHTTP, f.Kind)
	assert.Equal(t, 429, f.Status)
	assert.Equal(t, ai.Provider("b"), f.Provider)
	assert.True(t, f.Exhausted)
	assert.Contains(t, f.Message, "quota")

	err := result.Err()
	assert.ErrorIs(t, err, ai.ErrAllProvidersExhausted)
	assert.Empty(t, result.Text)
}

func TestQueryOverallDeadline(t *testing.T) {
	slow := &fakeProvider{respond: func(int, string) (*ai.Completion, error) {
		time.Sleep(30 * time.Millisecond)
		return nil, ai.NewConnectionError(errors.New("reset"))
	}}
	backup := &fakeProvider{respond: succeedWith("too late")}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{
			providerConfig("slow", "s1"),
			providerConfig("backup", "b1"),
		},
		Retry: &ai.RetryConfig{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 1},
	}, map[ai.Provider]*fakeProvider{"slow": slow, "backup": backup})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := g.Query(ctx, newRequest(t))

	require.False(t, result.OK())
	assert.Equal(t, ai.KindTimeout, result.Failure.Kind)
	assert.False(t, result.Failure.Exhausted)
	assert.ErrorIs(t, result.Err(), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Less(t, len(slow.calls()), 10)
	assert.Empty(t, backup.calls())
}

func TestQueryCanceled(t *testing.T) {
	only := &fakeProvider{respond: succeedWith("never")}
	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("only", "m1"),
	}}, map[ai.Provider]*fakeProvider{"only": only})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := g.Query(ctx, newRequest(t))
	require.False(t, result.OK())
	assert.Equal(t, ai.KindUnknown, result.Failure.Kind)
	assert.Equal(t, 0, result.Failure.Attempts)
	assert.ErrorIs(t, result.Err(), context.Canceled)
	assert.Empty(t, only.calls())
}

func TestQueryPerAttemptTimeout(t *testing.T) {
	var deadlines []time.Duration
	var mu sync.Mutex
	only := &blockingProvider{onSend: func(ctx context.Context) {
		d, ok := ctx.Deadline()
		require.True(t, ok)
		mu.Lock()
		deadlines = append(deadlines, time.Until(d))
		mu.Unlock()
	}}

	cfg := providerConfig("only", "m1")
	cfg.Timeout = 20 * time.Millisecond
	g, err := New(Config{
		Providers: []ai.ProviderConfig{cfg},
		Retry:     fastRetry(2),
		Logger:    discardLogger(),
	}, WithProviderClient("only", only))
	require.NoError(t, err)

	result := g.Query(context.Background(), newRequest(t))

	require.False(t, result.OK())
	assert.Equal(t, ai.KindTimeout, result.Failure.Kind)
	assert.Equal(t, 2, result.Failure.Attempts)
	require.Len(t, deadlines, 2)
	for _, d := range deadlines {
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

// blockingProvider waits for its context and reports the raw context error.
type blockingProvider struct {
	onSend func(ctx context.Context)
}

func (b *blockingProvider) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	b.onSend(ctx)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestQueryConcurrentCallsRotateWithoutLoss(t *testing.T) {
	const queries = 60
	models := []string{"m1", "m2", "m3"}
	only := &fakeProvider{respond: func(_ int, model string) (*ai.Completion, error) {
		return &ai.Completion{Text: model}, nil
	}}

	g := newTestGateway(t, Config{Providers: []ai.ProviderConfig{
		providerConfig("only", models...),
	}}, map[ai.Provider]*fakeProvider{"only": only})

	var wg sync.WaitGroup
	for i := 0; i < queries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := g.Query(context.Background(), newRequest(t))
			assert.True(t, result.OK())
		}()
	}
	wg.Wait()

	counts := make(map[string]int)
	for _, m := range only.calls() {
		counts[m]++
	}
	for _, m := range models {
		assert.Equal(t, queries/len(models), counts[m], "model %s", m)
	}
}

func TestAsk(t *testing.T) {
	var got ai.ChatRequest
	only := &fakeProvider{}
	only.respond = succeedWith("done")
	capture := &capturingProvider{inner: only, req: &got}

	g, err := New(Config{
		Providers: []ai.ProviderConfig{providerConfig("only", "m1")},
		Logger:    discardLogger(),
	}, WithProviderClient("only", capture))
	require.NoError(t, err)

	t.Run("builds request from parts", func(t *testing.T) {
		result := g.Ask(context.Background(), "sys", "user", 0.2, "only")
		require.True(t, result.OK())
		assert.Equal(t, "sys", got.SystemPrompt())
		assert.Equal(t, "user", got.UserPrompt())
		assert.Equal(t, 0.2, got.Temperature())
		assert.Equal(t, ai.Provider("only"), got.ProviderHint())
	})

	t.Run("invalid input is a failure", func(t *testing.T) {
		result := g.Ask(context.Background(), "", "", 0.7, "")
		require.False(t, result.OK())
		assert.Equal(t, 0, result.Failure.Attempts)
		assert.ErrorIs(t, result.Err(), ai.ErrEmptyPrompt)

		result = g.Ask(context.Background(), "", "hi", 3.5, "")
		assert.ErrorIs(t, result.Err(), ai.ErrInvalidTemperature)
	})
}

type capturingProvider struct {
	inner ai.ChatProvider
	req   *ai.ChatRequest
}

func (c *capturingProvider) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	*c.req = req
	return c.inner.Send(ctx, req, model)
}

func TestFactoryIsCalledOncePerProvider(t *testing.T) {
	var mu sync.Mutex
	built := make(map[ai.Provider]int)
	factory := func(ctx context.Context, cfg ai.ProviderConfig) (ai.ChatProvider, error) {
		mu.Lock()
		built[cfg.ID]++
		mu.Unlock()
		return &fakeProvider{respond: succeedWith(string(cfg.ID))}, nil
	}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("a", "a1")},
		Factory:   factory,
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Query(context.Background(), newRequest(t))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, built["a"])
}

func TestFactoryFailureFallsBack(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context, cfg ai.ProviderConfig) (ai.ChatProvider, error) {
		calls++
		if cfg.ID == "broken" {
			return nil, errors.New("missing credentials")
		}
		return &fakeProvider{respond: succeedWith("ok")}, nil
	}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("broken", "x"), providerConfig("good", "y")},
		Factory:   factory,
	}, nil)

	for i := 0; i < 2; i++ {
		result := g.Query(context.Background(), newRequest(t))
		require.True(t, result.OK())
		assert.Equal(t, ai.Provider("good"), result.Provider)
		assert.Equal(t, 1, result.Attempts)
	}
	assert.Equal(t, 2, calls)
}

func TestSlowFactoryDoesNotBlockOtherProviders(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	factory := func(ctx context.Context, cfg ai.ProviderConfig) (ai.ChatProvider, error) {
		if cfg.ID == "slow" {
			close(entered)
			<-release
		}
		return &fakeProvider{respond: succeedWith(string(cfg.ID))}, nil
	}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("slow", "s"), providerConfig("fast", "f")},
		Factory:   factory,
	}, nil)

	slowDone := make(chan ai.ChatResult, 1)
	go func() {
		slowDone <- g.Query(context.Background(), newRequest(t, ai.WithProviderHint("slow")))
	}()
	<-entered

	fastDone := make(chan ai.ChatResult, 1)
	go func() {
		fastDone <- g.Query(context.Background(), newRequest(t, ai.WithProviderHint("fast")))
	}()

	select {
	case result := <-fastDone:
		require.True(t, result.OK())
		assert.Equal(t, "fast", result.Text)
	case <-time.After(time.Second):
		t.Fatal("query to fast provider waited on slow provider's initialization")
	}

	close(release)
	result := <-slowDone
	require.True(t, result.OK())
	assert.Equal(t, "slow", result.Text)
}

func TestFactoryContextErrorIsNotCached(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context, cfg ai.ProviderConfig) (ai.ChatProvider, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("fetch credentials: %w", context.DeadlineExceeded)
		}
		return &fakeProvider{respond: succeedWith("ok")}, nil
	}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("vertex", "gemini")},
		Factory:   factory,
	}, nil)

	first := g.Query(context.Background(), newRequest(t))
	require.False(t, first.OK())
	assert.Equal(t, 0, first.Failure.Attempts)

	second := g.Query(context.Background(), newRequest(t))
	require.True(t, second.OK())
	assert.Equal(t, 2, calls)
}

func TestDefaultFactory(t *testing.T) {
	tests := []struct {
		vendor ai.Vendor
		ok     bool
	}{
		{ai.VendorOpenAI, true},
		{ai.VendorAnthropic, true},
		{ai.VendorGoogle, true},
		{ai.VendorCompat, true},
		{"mystery", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.vendor), func(t *testing.T) {
			c, err := DefaultFactory(context.Background(), ai.ProviderConfig{
				ID:          "p",
				Vendor:      tt.vendor,
				EndpointURL: "http://127.0.0.1:1",
				APIKey:      "k",
				Models:      []string{"m"},
			})
			if tt.ok {
				require.NoError(t, err)
				assert.NotNil(t, c)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestQueryEvents(t *testing.T) {
	events := make(chan Event, 64)
	first := &fakeProvider{respond: func(call int, _ string) (*ai.Completion, error) {
		if call == 1 {
			return nil, ai.NewConnectionError(errors.New("reset"))
		}
		return nil, ai.NewHTTPError(403, "forbidden", 0, nil)
	}}
	second := &fakeProvider{respond: succeedWith("ok")}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("first", "f1", "f2"), providerConfig("second", "s1")},
		Events:    events,
	}, map[ai.Provider]*fakeProvider{"first": first, "second": second})

	result := g.Query(context.Background(), newRequest(t))
	require.True(t, result.OK())
	close(events)

	var types []EventType
	var requestIDs = make(map[string]bool)
	var failed []Event
	for e := range events {
		types = append(types, e.Type)
		requestIDs[e.RequestID] = true
		assert.False(t, e.Timestamp.IsZero())
		if e.Type == EventAttemptFailed {
			failed = append(failed, e)
		}
	}

	assert.Equal(t, []EventType{
		EventQueryStart,
		EventAttemptFailed, EventRetry,
		EventAttemptFailed, EventFallback,
		EventQueryComplete,
	}, types)
	assert.Len(t, requestIDs, 1)

	require.Len(t, failed, 2)
	assert.Equal(t, "f2", failed[0].Model)
	assert.Equal(t, ai.KindConnection, failed[0].Kind)
	assert.Equal(t, "f1", failed[1].Model)
	assert.Equal(t, ai.KindHTTP, failed[1].Kind)
	assert.Equal(t, 2, failed[1].Attempts)
}

func TestQueryUsesRequestIDFromContext(t *testing.T) {
	events := make(chan Event, 16)
	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("a", "a1")},
		Events:    events,
	}, map[ai.Provider]*fakeProvider{"a": {respond: succeedWith("ok")}})

	ctx := WithRequestID(context.Background(), "req-42")
	require.True(t, g.Query(ctx, newRequest(t)).OK())
	close(events)

	n := 0
	for e := range events {
		assert.Equal(t, "req-42", e.RequestID)
		n++
	}
	assert.Equal(t, 2, n)
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestQueryFailedEvent(t *testing.T) {
	events := make(chan Event, 16)
	only := &fakeProvider{respond: failWith(ai.NewHTTPError(404, "gone", 0, nil))}

	g := newTestGateway(t, Config{
		Providers: []ai.ProviderConfig{providerConfig("only", "m1")},
		Events:    events,
	}, map[ai.Provider]*fakeProvider{"only": only})

	g.Query(context.Background(), newRequest(t))
	close(events)

	var last Event
	for e := range events {
		last = e
	}
	assert.Equal(t, EventQueryFailed, last.Type)
	assert.Equal(t, ai.KindHTTP, last.Kind)
	assert.ErrorIs(t, last.Error, ai.ErrAllProvidersExhausted)
}
