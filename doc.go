// Package llmgate provides the shared types of a resilient multi-provider LLM
// gateway.
//
// A query is a single system/user prompt pair. The gateway picks a provider,
// rotates through that provider's pool of model identifiers, retries transient
// failures with backoff, falls back to the next provider on terminal failures,
// and hands back a [ChatResult] that is either generated text or a structured
// [Failure]. Failures are never disguised as text.
//
// Use the [github.com/novelvision/llmgate/gateway] package as the entry point
// and [github.com/novelvision/llmgate/rotator] for model rotation on its own.
//
// # Basic Usage
//
//	gw, err := gateway.New(gateway.Config{
//	    Providers: []llmgate.ProviderConfig{
//	        {
//	            ID:          "siliconflow",
//	            Vendor:      llmgate.VendorCompat,
//	            EndpointURL: "https://api.siliconflow.cn/v1",
//	            APIKey:      os.Getenv("SILICONFLOW_API_KEY"),
//	            Models:      []string{"Qwen/Qwen2.5-7B-Instruct", "THUDM/glm-4-9b-chat"},
//	            Timeout:     30 * time.Second,
//	        },
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req, err := llmgate.NewChatRequest("Summarize chapter one.",
//	    llmgate.WithSystemPrompt("You are a careful literary assistant."),
//	    llmgate.WithTemperature(0.3),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := gw.Query(ctx, req)
//	if err := result.Err(); err != nil {
//	    log.Printf("query failed: %v", err)
//	    return
//	}
//	fmt.Println(result.Text)
//
// # Error Handling
//
// Provider clients classify every failure as a [*ProviderError] with an
// [ErrorKind]: [KindNoChoices], [KindHTTP], [KindConnection], [KindTimeout]
// or [KindUnknown]. Connection errors, timeouts, HTTP 429 and 5xx are
// transient and retried on the same provider; everything else moves on to the
// next provider. When nothing is left to try the result's Failure matches
// [ErrAllProvidersExhausted] via errors.Is.
package llmgate
