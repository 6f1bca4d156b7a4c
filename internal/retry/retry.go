package retry

import (
	"context"
	"time"

	ai "github.com/novelvision/llmgate"
)

// effectiveDelay returns the delay to use, honoring server's Retry-After if larger.
func effectiveDelay(configuredDelay time.Duration, err error) time.Duration {
	serverDelay := ai.RetryAfterOf(err)
	if serverDelay > configuredDelay {
		return serverDelay
	}
	return configuredDelay
}

// Do executes fn with retry logic. fn receives the 1-indexed attempt number.
// Only errors classified as transient by ai.IsTransient are retried.
// It respects context cancellation during backoff waits and stops early when
// the next wait would exceed cfg.MaxTotalWait.
//
// notify, if non-nil, is called synchronously for every event on the calling
// goroutine, so observers see events in order with fn's own side effects.
//
// Returns the result and attempts made on success, or the last error.
func Do[T any](ctx context.Context, cfg Config, notify Notify, fn func(attempt int) (T, error)) (T, int, error) {
	var zero T
	emit := func(e Event) { report(notify, e) }
	var lastErr error
	var waited time.Duration

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempts, err
		}

		attempts++
		emit(Event{
			Type:        EventAttemptStart,
			Attempt:     attempts,
			MaxAttempts: maxAttempts,
		})

		result, err := fn(attempts)
		if err == nil {
			emit(Event{
				Type:        EventSuccess,
				Attempt:     attempts,
				MaxAttempts: maxAttempts,
			})
			return result, attempts, nil
		}

		lastErr = err
		retryable := ai.IsTransient(err)

		emit(Event{
			Type:        EventAttemptFailed,
			Attempt:     attempts,
			MaxAttempts: maxAttempts,
			Error:       err,
			Retryable:   retryable,
		})

		if !retryable {
			return zero, attempts, err
		}

		// Don't sleep after the last attempt
		if attempt == maxAttempts-1 {
			break
		}

		delay := effectiveDelay(cfg.Delay(attempt), err)
		if cfg.MaxTotalWait > 0 && waited+delay > cfg.MaxTotalWait {
			break
		}
		waited += delay

		emit(Event{
			Type:        EventRetrying,
			Attempt:     attempts,
			MaxAttempts: maxAttempts,
			Delay:       delay,
		})

		if err := Sleep(ctx, delay); err != nil {
			return zero, attempts, err
		}
	}

	emit(Event{
		Type:        EventExhausted,
		Attempt:     attempts,
		MaxAttempts: maxAttempts,
		Error:       lastErr,
	})

	return zero, attempts, lastErr
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
