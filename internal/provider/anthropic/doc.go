// Package anthropic provides a ChatProvider backed by the Anthropic Messages API.
//
// The system prompt is sent in the request's top-level system field rather than
// as a message; the user prompt is the only message. Text from every text block
// of the reply is concatenated. A reply without text blocks is a no-choices
// failure.
//
// # Basic Usage
//
//	client := anthropic.New(llmgate.ProviderConfig{
//	    ID:      "claude",
//	    Vendor:  llmgate.VendorAnthropic,
//	    APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
//	    Models:  []string{"claude-haiku-4-5"},
//	    Timeout: 30 * time.Second,
//	})
//
//	completion, err := client.Send(ctx, req, "claude-haiku-4-5")
package anthropic
