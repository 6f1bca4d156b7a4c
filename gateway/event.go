package gateway

import (
	"time"

	ai "github.com/novelvision/llmgate"
)

// EventType identifies the kind of event occurring during a query.
type EventType string

const (
	// EventQueryStart fires once the provider order for a query is known.
	EventQueryStart EventType = "query_start"

	// EventAttemptFailed fires after each failed attempt against a provider.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetry fires before backing off for another attempt on the same provider.
	EventRetry EventType = "retry"

	// EventFallback fires when a provider is given up on and the next one is tried.
	EventFallback EventType = "fallback"

	// EventQueryComplete fires when a query produced text.
	EventQueryComplete EventType = "query_complete"

	// EventQueryFailed fires when a query ends with a Failure.
	EventQueryFailed EventType = "query_failed"
)

// Event represents an observable occurrence during a query.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// RequestID correlates all events of one query.
	RequestID string

	// Provider and Model identify the slot involved, when known.
	Provider ai.Provider
	Model    string

	// Attempt is the attempt number within the current provider (1-indexed).
	Attempt int

	// Attempts is the running total across providers.
	Attempts int

	// Kind and Error describe a failure.
	Kind  ai.ErrorKind
	Error error

	// Delay is the backoff before the next attempt (EventRetry).
	Delay time.Duration

	// Duration is the elapsed query time (EventQueryComplete, EventQueryFailed).
	Duration time.Duration

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	if event.Error != nil && event.Kind == "" {
		event.Kind = ai.KindOf(event.Error)
	}
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
