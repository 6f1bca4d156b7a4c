package llmgate

// RequestOptions contains the optional parts of a chat request.
type RequestOptions struct {
	SystemPrompt string
	Temperature  *float64
	MaxTokens    *int
	ProviderHint Provider
}

// RequestOption is a functional option for configuring chat requests.
type RequestOption func(*RequestOptions)

// WithSystemPrompt sets the system prompt sent before the user prompt.
func WithSystemPrompt(prompt string) RequestOption {
	return func(o *RequestOptions) {
		o.SystemPrompt = prompt
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) RequestOption {
	return func(o *RequestOptions) {
		o.Temperature = &t
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) RequestOption {
	return func(o *RequestOptions) {
		o.MaxTokens = &n
	}
}

// WithProviderHint restricts the request to a single configured provider.
// A hinted request never falls back to other providers.
func WithProviderHint(p Provider) RequestOption {
	return func(o *RequestOptions) {
		o.ProviderHint = p
	}
}

// ApplyRequestOptions applies functional options to a RequestOptions struct.
func ApplyRequestOptions(opts ...RequestOption) *RequestOptions {
	o := &RequestOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
