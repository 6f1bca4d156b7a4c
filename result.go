package llmgate

import "fmt"

// ChatResult is the outcome of a gateway query: either a success carrying
// generated text, or a Failure. Check OK or Err before reading Text.
type ChatResult struct {
	Text     string   `json:"text,omitempty"`
	Provider Provider `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Attempts int      `json:"attempts"`
	Usage    Usage    `json:"usage"`
	Failure  *Failure `json:"failure,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(c *Completion, provider Provider, model string, attempts int) ChatResult {
	return ChatResult{
		Text:     c.Text,
		Provider: provider,
		Model:    model,
		Attempts: attempts,
		Usage:    c.Usage,
	}
}

// Failed builds a failed result.
func Failed(f *Failure) ChatResult {
	return ChatResult{
		Provider: f.Provider,
		Model:    f.Model,
		Attempts: f.Attempts,
		Failure:  f,
	}
}

// OK reports whether the query produced text.
func (r ChatResult) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r ChatResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Failure describes why a query produced no text. It carries enough
// detail to render a diagnostic without inspecting the cause.
type Failure struct {
	Kind      ErrorKind `json:"kind"`
	Status    int       `json:"status,omitempty"`
	Message   string    `json:"message"`
	Provider  Provider  `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Attempts  int       `json:"attempts"`
	Exhausted bool      `json:"exhausted"`
	Cause     error     `json:"-"`
}

// NewFailure builds a Failure from the last error observed on a provider.
func NewFailure(err error, provider Provider, model string, attempts int) *Failure {
	f := &Failure{
		Kind:     KindOf(err),
		Status:   StatusCodeOf(err),
		Provider: provider,
		Model:    model,
		Attempts: attempts,
		Cause:    err,
	}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

// Error returns a diagnostic message.
func (f *Failure) Error() string {
	where := ""
	if f.Provider != "" {
		where = fmt.Sprintf(" [%s", f.Provider)
		if f.Model != "" {
			where += "/" + f.Model
		}
		where += "]"
	}
	prefix := string(f.Kind)
	if f.Exhausted {
		prefix = ErrAllProvidersExhausted.Error() + ": " + prefix
	}
	return fmt.Sprintf("%s%s after %d attempt(s): %s", prefix, where, f.Attempts, f.Message)
}

// Unwrap exposes the cause and, for exhausted failures, ErrAllProvidersExhausted.
func (f *Failure) Unwrap() []error {
	var errs []error
	if f.Cause != nil {
		errs = append(errs, f.Cause)
	}
	if f.Exhausted {
		errs = append(errs, ErrAllProvidersExhausted)
	}
	return errs
}
