// Package google provides ChatProviders backed by the Google GenAI SDK, for
// both the Gemini API and Vertex AI backends.
package google

import (
	"context"
	"net/http"
	"strings"

	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
	"google.golang.org/genai"
)

// Client wraps the Google GenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *genai.Client
	id     ai.Provider
}

// ClientOption configures the Google client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// New creates a Gemini API client for the given provider configuration.
func New(ctx context.Context, cfg ai.ProviderConfig, opts ...ClientOption) (*Client, error) {
	return newClient(ctx, cfg, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}, opts)
}

// NewVertex creates a Vertex AI client for the given provider configuration.
// It authenticates with Application Default Credentials.
func NewVertex(ctx context.Context, cfg ai.ProviderConfig, opts ...ClientOption) (*Client, error) {
	return newClient(ctx, cfg, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  cfg.Project,
		Location: cfg.Location,
	}, opts)
}

func newClient(ctx context.Context, cfg ai.ProviderConfig, gc *genai.ClientConfig, opts []ClientOption) (*Client, error) {
	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}
	if cc.httpClient == nil {
		cc.httpClient = provider.NewHTTPClient(cfg.AttemptTimeout())
	}
	gc.HTTPClient = cc.httpClient
	if cfg.EndpointURL != "" {
		gc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.EndpointURL}
	}

	client, err := genai.NewClient(ctx, gc)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, id: cfg.ID}, nil
}

// Send performs one GenerateContent call with the given model.
func (c *Client) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	contents, system := convertMessages(ai.BuildMessages(req))

	temp := float32(req.Temperature())
	config := &genai.GenerateContentConfig{
		Temperature:       &temp,
		MaxOutputTokens:   int32(req.MaxTokens()),
		SystemInstruction: system,
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	return completionFromResponse(resp, string(c.id)+"/"+model)
}

// completionFromResponse extracts the first candidate's text.
func completionFromResponse(resp *genai.GenerateContentResponse, where string) (*ai.Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ai.NewNoChoicesError(where)
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, provider.EmptyCompletion(where, string(candidate.FinishReason))
	}

	usage := ai.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ai.Completion{
		Text:         text.String(),
		FinishReason: string(candidate.FinishReason),
		Usage:        usage,
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
