// Package gateway routes chat requests across several LLM providers.
//
// The Gateway wraps the vendor clients and provides:
//
//   - Model rotation: every attempt takes the next model from the provider's pool
//   - Retries: transient failures are retried with exponential backoff
//   - Fallback: terminal failures move on to the next configured provider
//   - Event emission: observable queries via channel
//
// # Basic Usage
//
//	gw, err := gateway.New(gateway.Config{
//	    Providers: []llmgate.ProviderConfig{
//	        {
//	            ID:          "zhipu",
//	            Vendor:      llmgate.VendorOpenAI,
//	            EndpointURL: "https://open.bigmodel.cn/api/paas/v4",
//	            APIKey:      os.Getenv("ZHIPU_API_KEY"),
//	            Models:      []string{"glm-4-flash", "glm-4-flash-250414"},
//	        },
//	    },
//	})
//
//	result := gw.Ask(ctx, "You are a story editor.", "Summarise chapter one.", 0.7, "")
//	if err := result.Err(); err != nil {
//	    return err
//	}
//	fmt.Println(result.Text)
//
// # Provider Selection
//
// Providers are tried in the order they are configured. A request carrying a
// provider hint that names a configured provider is sent to that provider
// only; failures there are returned without trying the others. A hint that
// matches nothing is logged and ignored.
//
// # Retry Configuration
//
// Connection errors, timeouts, HTTP 429 and HTTP 5xx are retried on the same
// provider. Other failures are terminal for that provider:
//
//	gw, err := gateway.New(gateway.Config{
//	    Providers: providers,
//	    Retry: &llmgate.RetryConfig{
//	        MaxAttempts:  5,
//	        InitialDelay: 500 * time.Millisecond,
//	        MaxDelay:     10 * time.Second,
//	        MaxTotalWait: 30 * time.Second,
//	    },
//	})
//
// # Deadlines
//
// Each attempt is bounded by its provider's timeout. The caller's context
// bounds the whole query:
//
//	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
//	defer cancel()
//	result := gw.Query(ctx, req)
//
// # Events
//
//	events := make(chan gateway.Event, 100)
//	gw, _ := gateway.New(gateway.Config{Providers: providers, Events: events})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s %s/%s\n", e.RequestID, e.Type, e.Provider, e.Model)
//	    }
//	}()
package gateway
