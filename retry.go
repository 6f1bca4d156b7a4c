package llmgate

import "time"

// RetryConfig holds the per-provider retry policy.
// Use DefaultRetryConfig() for sensible defaults or create custom configs.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per provider (default: 3).
	// The initial request counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry (default: 500ms).
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries (default: 8s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd (default: 0.1 = 10%).
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64

	// MaxTotalWait bounds the summed backoff across one provider's retries
	// (default: 30s). Zero means unbounded.
	MaxTotalWait time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
//   - 3 max attempts
//   - 500ms initial delay
//   - 8 second max delay
//   - 2x exponential multiplier
//   - 10% jitter
//   - 30 second total wait budget
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		MaxTotalWait: 30 * time.Second,
	}
}

// DisabledRetryConfig returns a configuration that disables retries (single attempt).
func DisabledRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}
