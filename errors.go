package llmgate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyPrompt is returned when a request has no user prompt.
	ErrEmptyPrompt = errors.New("empty user prompt")

	// ErrInvalidTemperature is returned when a temperature is outside [0, 2].
	ErrInvalidTemperature = errors.New("temperature out of range")

	// ErrInvalidMaxTokens is returned when max tokens is not positive.
	ErrInvalidMaxTokens = errors.New("max tokens must be positive")

	// ErrAllProvidersExhausted is matched by a Failure once every eligible
	// provider and attempt has been used up.
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	// KindNoChoices means the response parsed but contained no completion.
	KindNoChoices ErrorKind = "no_choices"

	// KindHTTP means the provider answered with a non-2xx status.
	KindHTTP ErrorKind = "http_error"

	// KindConnection means a transport failure: DNS, refused or reset connection.
	KindConnection ErrorKind = "connection_error"

	// KindTimeout means the attempt or the overall query deadline passed.
	KindTimeout ErrorKind = "timeout"

	// KindUnknown covers everything else.
	KindUnknown ErrorKind = "unknown"
)

// ProviderError is the classified failure of a single provider call.
type ProviderError struct {
	Kind       ErrorKind
	Msg        string
	Code       int           // HTTP status code, 0 if not applicable
	Body       string        // response body for KindHTTP
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

// Error returns the error message.
func (e *ProviderError) Error() string {
	msg := e.Msg
	if e.Kind == KindHTTP {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
		if e.Body != "" {
			msg += ": " + e.Body
		}
	}
	if e.Cause != nil && e.Kind != KindHTTP {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Transient reports whether retrying the same provider may succeed.
// Connection errors, timeouts, rate limits (429) and server errors (5xx) are transient.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case KindConnection, KindTimeout:
		return true
	case KindHTTP:
		return e.Code == 429 || (e.Code >= 500 && e.Code < 600)
	default:
		return false
	}
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *ProviderError) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *ProviderError) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewHTTPError creates a KindHTTP error. The body is kept for diagnostics.
func NewHTTPError(code int, body string, retryAfter time.Duration, cause error) *ProviderError {
	return &ProviderError{
		Kind:       KindHTTP,
		Msg:        "unexpected response status",
		Code:       code,
		Body:       body,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// NewNoChoicesError creates a KindNoChoices error.
func NewNoChoicesError(detail string) *ProviderError {
	msg := "no choices found in response"
	if detail != "" {
		msg += ": " + detail
	}
	return &ProviderError{Kind: KindNoChoices, Msg: msg}
}

// NewConnectionError creates a KindConnection error.
func NewConnectionError(cause error) *ProviderError {
	return &ProviderError{Kind: KindConnection, Msg: "connection error", Cause: cause}
}

// NewTimeoutError creates a KindTimeout error.
func NewTimeoutError(cause error) *ProviderError {
	return &ProviderError{Kind: KindTimeout, Msg: "request timed out", Cause: cause}
}

// NewUnknownError creates a KindUnknown error carrying the stringified cause.
func NewUnknownError(cause error) *ProviderError {
	return &ProviderError{Kind: KindUnknown, Msg: "request failed", Cause: cause}
}

// KindOf returns the ErrorKind of err, or KindUnknown if err is not a *ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsTransient returns true if err is a *ProviderError that may succeed on retry.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a provider error, or 0.
func StatusCodeOf(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a provider error, or 0.
func RetryAfterOf(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter()
	}
	return 0
}
