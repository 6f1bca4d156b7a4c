package llmgate

import "context"

// Provider identifies a configured LLM provider, e.g. "siliconflow" or "zhipu".
// Provider IDs are chosen by configuration; several providers may share a Vendor.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Vendor identifies the backend API family a provider speaks.
type Vendor string

// String returns the vendor identifier.
func (v Vendor) String() string { return string(v) }

// Supported vendors.
const (
	VendorOpenAI    Vendor = "openai"
	VendorAnthropic Vendor = "anthropic"
	VendorGoogle    Vendor = "google"
	VendorVertex    Vendor = "vertex"
	VendorCompat    Vendor = "compat"
)

// ChatProvider sends a single chat request to one provider using the given model.
//
// Implementations perform exactly one outbound call and never retry. Every error
// they return is a *ProviderError so the caller can decide whether to retry,
// fall back, or give up.
type ChatProvider interface {
	Send(ctx context.Context, req ChatRequest, model string) (*Completion, error)
}

// Completion is the successful outcome of a single provider call.
type Completion struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
