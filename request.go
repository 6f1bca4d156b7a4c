package llmgate

import (
	"fmt"
	"math"
)

const (
	// DefaultTemperature is used when a request does not set one.
	DefaultTemperature = 0.7

	// DefaultMaxTokens is used when a request does not set one.
	DefaultMaxTokens = 2048

	// MaxTemperature is the highest sampling temperature accepted.
	MaxTemperature = 2.0
)

// ChatRequest is a single prompt pair plus sampling parameters.
// It is immutable once built; use NewChatRequest to construct one.
type ChatRequest struct {
	systemPrompt string
	userPrompt   string
	temperature  float64
	maxTokens    int
	providerHint Provider
}

// NewChatRequest builds a validated request for the given user prompt.
func NewChatRequest(userPrompt string, opts ...RequestOption) (ChatRequest, error) {
	o := ApplyRequestOptions(opts...)
	req := ChatRequest{
		systemPrompt: o.SystemPrompt,
		userPrompt:   userPrompt,
		temperature:  DefaultTemperature,
		maxTokens:    DefaultMaxTokens,
		providerHint: o.ProviderHint,
	}
	if o.Temperature != nil {
		req.temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		req.maxTokens = *o.MaxTokens
	}
	if err := req.validate(); err != nil {
		return ChatRequest{}, err
	}
	return req, nil
}

func (r ChatRequest) validate() error {
	if r.userPrompt == "" {
		return ErrEmptyPrompt
	}
	if math.IsNaN(r.temperature) || r.temperature < 0 || r.temperature > MaxTemperature {
		return fmt.Errorf("%w: %v", ErrInvalidTemperature, r.temperature)
	}
	if r.maxTokens <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, r.maxTokens)
	}
	return nil
}

// SystemPrompt returns the system prompt, or "" if none was set.
func (r ChatRequest) SystemPrompt() string { return r.systemPrompt }

// UserPrompt returns the user prompt.
func (r ChatRequest) UserPrompt() string { return r.userPrompt }

// Temperature returns the sampling temperature.
func (r ChatRequest) Temperature() float64 { return r.temperature }

// MaxTokens returns the maximum number of tokens to generate.
func (r ChatRequest) MaxTokens() int { return r.maxTokens }

// ProviderHint returns the provider the caller asked for, or "" if none.
func (r ChatRequest) ProviderHint() Provider { return r.providerHint }
