package retry

import (
	"time"

	ai "github.com/novelvision/llmgate"
)

// EventType identifies the kind of event occurring during retry execution.
type EventType string

const (
	// EventAttemptStart fires before each attempt.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed fires after a failed attempt.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying fires before sleeping between attempts.
	EventRetrying EventType = "retrying"

	// EventSuccess fires when an attempt succeeds.
	EventSuccess EventType = "success"

	// EventExhausted fires when attempts or the wait budget run out.
	EventExhausted EventType = "exhausted"
)

// Event represents an observable occurrence during retry execution.
type Event struct {
	Type EventType

	// Attempt is the current attempt number (1-indexed).
	Attempt int

	MaxAttempts int

	// Error and Kind describe a failed attempt.
	Error error
	Kind  ai.ErrorKind

	// Delay is the duration before the next attempt (for EventRetrying).
	Delay time.Duration

	// Retryable indicates whether the error was classified as transient.
	Retryable bool

	Timestamp time.Time
}

// Notify receives retry events.
type Notify func(Event)

// report stamps an event and hands it to notify.
func report(notify Notify, event Event) {
	if notify == nil {
		return
	}
	event.Timestamp = time.Now()
	if event.Error != nil {
		event.Kind = ai.KindOf(event.Error)
	}
	notify(event)
}
