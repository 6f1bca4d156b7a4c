// Package openai implements a ChatProvider on top of the OpenAI SDK.
//
// Any endpoint that speaks the OpenAI chat-completions protocol can be used by
// setting the provider's EndpointURL, e.g. Zhipu GLM, SiliconFlow or SambaNova.
package openai

import (
	"context"
	"net/http"

	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *openai.Client
	id     ai.Provider
}

// ClientOption configures the OpenAI client.
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
// SDK-level retries are disabled; the gateway owns retry policy.
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

	client := openai.NewClient(reqOpts...)
	return &Client{
		client: &client,
		id:     cfg.ID,
	}
}

// Send performs one chat completion with the given model.
func (c *Client) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    convertMessages(ai.BuildMessages(req)),
		MaxTokens:   openai.Int(int64(req.MaxTokens())),
		Temperature: openai.Float(req.Temperature()),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	where := string(c.id) + "/" + model
	if len(resp.Choices) == 0 {
		return nil, ai.NewNoChoicesError(where)
	}
	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		return nil, provider.EmptyCompletion(where, string(choice.FinishReason))
	}

	return &ai.Completion{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
