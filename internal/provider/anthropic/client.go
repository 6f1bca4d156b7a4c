package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
)

// Client wraps the Anthropic SDK to implement ai.ChatProvider.
type Client struct {
	client *anthropic.Client
	id     ai.Provider
}

// ClientOption configures the Anthropic client.
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

// New creates a client for the given provider configuration.
func New(cfg ai.ProviderConfig, opts ...ClientOption) *Client {
	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}
	if cc.httpClient == nil {
		cc.httpClient = provider.NewHTTPClient(cfg.AttemptTimeout())
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cc.httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.EndpointURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.EndpointURL))
	}

	client := anthropic.NewClient(reqOpts...)
	return &Client{
		client: &client,
		id:     cfg.ID,
	}
}

// Send performs one Messages API call with the given model.
func (c *Client) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	msgs, system := convertMessages(ai.BuildMessages(req))
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(req.MaxTokens()),
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature()),
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, provider.EmptyCompletion(string(c.id)+"/"+model, string(resp.StopReason))
	}

	return &ai.Completion{
		Text:         text.String(),
		FinishReason: string(resp.StopReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
