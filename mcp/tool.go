package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/novelvision/llmgate"
)

const (
	toolGenerateText  = "generate_text"
	toolListProviders = "list_providers"
)

func generateTextTool() mcp.Tool {
	return mcp.NewTool(toolGenerateText,
		mcp.WithDescription("Generate text with the configured LLM providers, rotating models and falling back across providers on failure."),
		mcp.WithString("user_prompt", mcp.Required(), mcp.Description("The prompt to answer")),
		mcp.WithString("system_prompt", mcp.Description("Optional instructions sent before the prompt")),
		mcp.WithNumber("temperature", mcp.Description("Sampling temperature between 0 and 2 (default 0.7)")),
		mcp.WithNumber("max_tokens", mcp.Description("Maximum tokens to generate (default 2048)")),
		mcp.WithString("provider", mcp.Description("Restrict the call to one configured provider")),
	)
}

func listProvidersTool() mcp.Tool {
	return mcp.NewTool(toolListProviders,
		mcp.WithDescription("List configured providers in priority order with their model pools."),
	)
}

// generateTextHandler runs a gateway query. Failures are reported as tool
// errors so the calling model sees them as such, never as generated text.
func generateTextHandler(gw Gateway, timeout time.Duration) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chatReq, err := chatRequestFromArgs(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		result := gw.Query(ctx, chatReq)
		if err := result.Err(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}

// chatRequestFromArgs builds a request from tool arguments.
func chatRequestFromArgs(arguments any) (ai.ChatRequest, error) {
	args, _ := arguments.(map[string]any)

	user, _ := args["user_prompt"].(string)
	var opts []ai.RequestOption
	if s, ok := args["system_prompt"].(string); ok {
		opts = append(opts, ai.WithSystemPrompt(s))
	}
	if v, ok := args["temperature"]; ok {
		f, ok := toFloat(v)
		if !ok {
			return ai.ChatRequest{}, fmt.Errorf("temperature must be a number, got %T", v)
		}
		opts = append(opts, ai.WithTemperature(f))
	}
	if v, ok := args["max_tokens"]; ok {
		f, ok := toFloat(v)
		if !ok || f != float64(int(f)) {
			return ai.ChatRequest{}, fmt.Errorf("max_tokens must be an integer, got %v", v)
		}
		opts = append(opts, ai.WithMaxTokens(int(f)))
	}
	if p, ok := args["provider"].(string); ok {
		opts = append(opts, ai.WithProviderHint(ai.Provider(p)))
	}

	return ai.NewChatRequest(user, opts...)
}

// toFloat accepts the numeric forms arguments arrive in.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

type providerInfo struct {
	ID     ai.Provider `json:"id"`
	Models []string    `json:"models"`
}

func listProvidersHandler(gw Gateway) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var infos []providerInfo
		for _, id := range gw.Providers() {
			pool, err := gw.Pool(id)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			infos = append(infos, providerInfo{ID: id, Models: pool})
		}

		data, err := json.Marshal(infos)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal providers: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
