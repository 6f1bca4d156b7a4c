package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
	"github.com/novelvision/llmgate/internal/retry"
	"github.com/novelvision/llmgate/rotator"
)

// Config holds configuration for creating a Gateway.
type Config struct {
	// Providers lists the configured providers in priority order.
	Providers []ai.ProviderConfig

	// Retry configures the per-provider retry policy.
	// If nil, uses ai.DefaultRetryConfig().
	Retry *ai.RetryConfig

	// Events is an optional channel for receiving query events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Logger receives structured query logs. If nil, uses slog.Default().
	Logger *slog.Logger

	// Factory builds provider clients. If nil, uses DefaultFactory.
	Factory Factory
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithProviderClient installs a ready-made client for a configured provider,
// bypassing the factory for that provider.
func WithProviderClient(id ai.Provider, c ai.ChatProvider) Option {
	return func(g *Gateway) {
		g.clients[id] = c
	}
}

// Gateway routes chat requests across providers with model rotation, retry
// and fallback. It is safe for concurrent use.
type Gateway struct {
	order   []ai.Provider
	configs map[ai.Provider]ai.ProviderConfig
	rotator *rotator.Rotator
	retry   retry.Config
	events  chan<- Event
	logger  *slog.Logger
	factory Factory

	// Lazy-initialized provider clients (protected by mu). inits holds one
	// construction lock per provider and is read-only after New.
	mu       sync.RWMutex
	clients  map[ai.Provider]ai.ChatProvider
	initErrs map[ai.Provider]error
	inits    map[ai.Provider]*sync.Mutex
}

// New creates a Gateway for the given configuration.
// Provider clients are created lazily the first time a provider is tried.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	if err := ai.ValidateProviders(cfg.Providers); err != nil {
		return nil, err
	}

	rot, err := rotator.FromConfigs(cfg.Providers)
	if err != nil {
		return nil, err
	}

	retryConfig := ai.DefaultRetryConfig()
	if cfg.Retry != nil {
		retryConfig = *cfg.Retry
	}

	g := &Gateway{
		configs:  make(map[ai.Provider]ai.ProviderConfig, len(cfg.Providers)),
		rotator:  rot,
		retry:    retry.FromRetryConfig(retryConfig),
		events:   cfg.Events,
		logger:   cfg.Logger,
		factory:  cfg.Factory,
		clients:  make(map[ai.Provider]ai.ChatProvider),
		initErrs: make(map[ai.Provider]error),
		inits:    make(map[ai.Provider]*sync.Mutex, len(cfg.Providers)),
	}
	for _, p := range cfg.Providers {
		g.order = append(g.order, p.ID)
		g.configs[p.ID] = p
		g.inits[p.ID] = &sync.Mutex{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.factory == nil {
		g.factory = DefaultFactory
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Providers returns the configured provider IDs in priority order.
func (g *Gateway) Providers() []ai.Provider {
	out := make([]ai.Provider, len(g.order))
	copy(out, g.order)
	return out
}

// Pool returns the model pool configured for a provider.
func (g *Gateway) Pool(id ai.Provider) ([]string, error) {
	return g.rotator.Pool(id)
}

// Ask builds a request from its parts and runs Query. Invalid input comes
// back as a Failure with zero attempts.
func (g *Gateway) Ask(ctx context.Context, system, user string, temperature float64, hint string) ai.ChatResult {
	req, err := ai.NewChatRequest(user,
		ai.WithSystemPrompt(system),
		ai.WithTemperature(temperature),
		ai.WithProviderHint(ai.Provider(hint)),
	)
	if err != nil {
		return ai.Failed(ai.NewFailure(ai.NewUnknownError(err), "", "", 0))
	}
	return g.Query(ctx, req)
}

// Query sends req to the configured providers until one produces text.
//
// With a provider hint matching a configured provider only that provider is
// tried. Every attempt takes the next model from the provider's rotation.
// Transient failures are retried on the same provider with backoff; other
// failures move on to the next provider. The caller's context bounds the
// whole query: once its deadline passes a Failure of kind Timeout is returned.
func (g *Gateway) Query(ctx context.Context, req ai.ChatRequest) ai.ChatResult {
	id := RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	q := &query{
		g:     g,
		req:   req,
		id:    id,
		start: time.Now(),
	}
	q.log = g.logger.With("request_id", q.id)
	return q.run(ctx)
}

type requestIDKey struct{}

// WithRequestID returns a context carrying a caller-assigned request ID.
// Query logs and events use it instead of generating their own.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// candidates resolves the provider order for a hint. The second result
// reports whether the hint restricted the order.
func (g *Gateway) candidates(hint ai.Provider) ([]ai.Provider, bool) {
	if hint == "" {
		return g.order, false
	}
	if _, ok := g.configs[hint]; ok {
		return []ai.Provider{hint}, true
	}
	return g.order, false
}

// query carries the state of one Query call. Attempts run sequentially.
type query struct {
	g     *Gateway
	req   ai.ChatRequest
	id    string
	start time.Time
	log   *slog.Logger

	attempts int
	provider ai.Provider
	model    string
	lastErr  error
}

func (q *query) run(ctx context.Context) ai.ChatResult {
	g := q.g
	hint := q.req.ProviderHint()
	order, exclusive := g.candidates(hint)
	if hint != "" && !exclusive {
		q.log.Warn("provider hint does not match any configured provider, using priority order",
			"hint", hint)
	}

	q.log.Debug("query started", "providers", order, "exclusive", exclusive)
	emit(g.events, Event{Type: EventQueryStart, RequestID: q.id})

	for i, id := range order {
		if err := ctx.Err(); err != nil {
			return q.abort(err)
		}

		q.provider = id
		completion, err := q.tryProvider(ctx, id)
		if err == nil {
			return q.succeed(completion)
		}
		q.lastErr = err

		if err := ctx.Err(); err != nil {
			return q.abort(err)
		}

		if exclusive || i == len(order)-1 {
			break
		}
		q.log.Info("falling back to next provider",
			"provider", id,
			"next", order[i+1],
			"kind", ai.KindOf(err),
			"error", err)
		emit(g.events, Event{
			Type:      EventFallback,
			RequestID: q.id,
			Provider:  id,
			Model:     q.model,
			Attempts:  q.attempts,
			Error:     err,
		})
	}

	f := ai.NewFailure(q.lastErr, q.provider, q.model, q.attempts)
	f.Exhausted = true
	return q.fail(f)
}

// tryProvider runs the retry loop against one provider.
func (q *query) tryProvider(ctx context.Context, id ai.Provider) (*ai.Completion, error) {
	g := q.g
	client, err := g.client(ctx, id)
	if err != nil {
		q.log.Error("provider unavailable", "provider", id, "error", err)
		return nil, ai.NewUnknownError(err)
	}
	timeout := g.configs[id].AttemptTimeout()

	notify := func(e retry.Event) {
		switch e.Type {
		case retry.EventAttemptFailed:
			q.log.Warn("attempt failed",
				"provider", id,
				"model", q.model,
				"attempt", e.Attempt,
				"kind", e.Kind,
				"retryable", e.Retryable,
				"error", e.Error)
			emit(g.events, Event{
				Type:      EventAttemptFailed,
				RequestID: q.id,
				Provider:  id,
				Model:     q.model,
				Attempt:   e.Attempt,
				Attempts:  q.attempts,
				Kind:      e.Kind,
				Error:     e.Error,
			})
		case retry.EventRetrying:
			q.log.Debug("retrying", "provider", id, "attempt", e.Attempt, "delay", e.Delay)
			emit(g.events, Event{
				Type:      EventRetry,
				RequestID: q.id,
				Provider:  id,
				Model:     q.model,
				Attempt:   e.Attempt,
				Attempts:  q.attempts,
				Delay:     e.Delay,
			})
		}
	}

	completion, _, err := retry.Do(ctx, g.retry, notify, func(attempt int) (*ai.Completion, error) {
		model, err := g.rotator.Next(id)
		if err != nil {
			return nil, ai.NewUnknownError(err)
		}
		q.model = model
		q.attempts++
		q.log.Debug("sending request", "provider", id, "model", model, "attempt", attempt)

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		c, err := client.Send(attemptCtx, q.req, model)
		if err != nil {
			return nil, provider.ClassifyError(err)
		}
		if c == nil {
			return nil, ai.NewNoChoicesError(fmt.Sprintf("%s/%s", id, model))
		}
		return c, nil
	})
	return completion, err
}

func (q *query) succeed(c *ai.Completion) ai.ChatResult {
	elapsed := time.Since(q.start)
	q.log.Info("query complete",
		"provider", q.provider,
		"model", q.model,
		"attempts", q.attempts,
		"duration", elapsed)
	emit(q.g.events, Event{
		Type:      EventQueryComplete,
		RequestID: q.id,
		Provider:  q.provider,
		Model:     q.model,
		Attempts:  q.attempts,
		Duration:  elapsed,
	})
	return ai.Succeeded(c, q.provider, q.model, q.attempts)
}

// abort ends the query because the caller's context is done.
func (q *query) abort(ctxErr error) ai.ChatResult {
	var err error
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		err = ai.NewTimeoutError(fmt.Errorf("query deadline exceeded: %w", ctxErr))
	} else {
		err = ai.NewUnknownError(fmt.Errorf("query canceled: %w", ctxErr))
	}
	return q.fail(ai.NewFailure(err, q.provider, q.model, q.attempts))
}

func (q *query) fail(f *ai.Failure) ai.ChatResult {
	elapsed := time.Since(q.start)
	q.log.Error("query failed",
		"provider", f.Provider,
		"model", f.Model,
		"attempts", f.Attempts,
		"kind", f.Kind,
		"exhausted", f.Exhausted,
		"error", f.Message)
	emit(q.g.events, Event{
		Type:      EventQueryFailed,
		RequestID: q.id,
		Provider:  f.Provider,
		Model:     f.Model,
		Attempts:  f.Attempts,
		Kind:      f.Kind,
		Error:     f,
		Duration:  elapsed,
	})
	return ai.Failed(f)
}
