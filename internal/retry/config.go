// Package retry runs an operation repeatedly with exponential backoff while it
// keeps failing with transient errors.
package retry

import (
	"math"
	"math/rand"
	"time"

	ai "github.com/novelvision/llmgate"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts. The initial call counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum computed delay between retries.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64

	// Jitter randomizes each delay by a factor in [1-Jitter, 1+Jitter].
	Jitter float64

	// MaxTotalWait bounds the sum of all waits. Zero means unbounded.
	MaxTotalWait time.Duration
}

// FromRetryConfig converts the public retry policy to the internal form.
// A non-positive MaxAttempts is treated as a single attempt. A missing
// InitialDelay or a Multiplier below 1 falls back to the default, so the
// backoff never shrinks between retries.
func FromRetryConfig(cfg ai.RetryConfig) Config {
	defaults := ai.DefaultRetryConfig()
	c := Config{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
		Jitter:       cfg.Jitter,
		MaxTotalWait: cfg.MaxTotalWait,
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaults.InitialDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = defaults.Multiplier
	}
	return c
}

// Delay calculates the delay for a given attempt number (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 + jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	// Apply jitter: random value in range [-jitter, +jitter]
	if c.Jitter > 0 {
		jitterFactor := 1.0 + (rand.Float64()*2-1)*c.Jitter
		delay *= jitterFactor
	}

	return time.Duration(delay)
}
