// Package compat is a plain REST client for OpenAI-style chat completion
// endpoints. It speaks the wire format directly instead of going through an
// SDK, which suits hosts that accept the request shape but return responses
// the SDK decoder rejects.
package compat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider"
	"github.com/tidwall/gjson"
)

const (
	completionsPath  = "/chat/completions"
	maxResponseBytes = 8 << 20
)

// Client posts chat completion requests to an OpenAI-compatible endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	id         ai.Provider
}

// ClientOption configures the compat client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for cfg. EndpointURL is the API base, e.g.
// https://api.siliconflow.cn/v1; a URL already ending in /chat/completions is
// used as is.
func New(cfg ai.ProviderConfig, opts ...ClientOption) *Client {
	endpoint := strings.TrimRight(cfg.EndpointURL, "/")
	if !strings.HasSuffix(endpoint, completionsPath) {
		endpoint += completionsPath
	}
	c := &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		id:       cfg.ID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = provider.NewHTTPClient(cfg.AttemptTimeout())
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Send performs one chat completion request with the given model.
func (c *Client) Send(ctx context.Context, req ai.ChatRequest, model string) (*ai.Completion, error) {
	payload := chatPayload{
		Model:       model,
		Temperature: req.Temperature(),
		MaxTokens:   req.MaxTokens(),
	}
	for _, m := range ai.BuildMessages(req) {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, ai.NewUnknownError(fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, ai.NewUnknownError(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ai.NewHTTPError(
			resp.StatusCode,
			provider.ReadBody(resp.Body),
			provider.ParseRetryAfter(resp),
			fmt.Errorf("%s %s", httpReq.Method, c.endpoint),
		)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, provider.ClassifyError(err)
	}

	return parseCompletion(string(data), string(c.id)+"/"+model)
}

// parseCompletion extracts the first choice from a chat completion body.
func parseCompletion(body, where string) (*ai.Completion, error) {
	if !gjson.Valid(body) {
		return nil, ai.NewUnknownError(fmt.Errorf("invalid JSON response from %s: %s", where, provider.TruncateBody(body)))
	}

	parsed := gjson.Parse(body)
	choices := parsed.Get("choices")
	if !choices.IsArray() || len(choices.Array()) == 0 {
		return nil, ai.NewNoChoicesError(where)
	}

	first := choices.Array()[0]
	text := first.Get("message.content").String()
	if text == "" {
		return nil, provider.EmptyCompletion(where, first.Get("finish_reason").String())
	}
	return &ai.Completion{
		Text:         text,
		FinishReason: first.Get("finish_reason").String(),
		Usage: ai.Usage{
			InputTokens:  int(parsed.Get("usage.prompt_tokens").Int()),
			OutputTokens: int(parsed.Get("usage.completion_tokens").Int()),
		},
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
