// Command llmgate serves the multi-provider LLM gateway over HTTP, or over
// MCP stdio when started with -mcp.
//
// Configuration is via environment variables (a .env file is loaded if present):
//
//	LLMGATE_PORT                - Server port (default: 8080)
//	LLMGATE_LOG_LEVEL           - debug, info, warn, error (default: info)
//	LLMGATE_LOG_FORMAT          - text or json (default: text)
//	LLMGATE_PROVIDERS           - Provider ids in priority order, comma-separated (required)
//	LLMGATE_<ID>_VENDOR         - openai, anthropic, google, vertex, or compat (default: openai)
//	LLMGATE_<ID>_ENDPOINT       - API base URL
//	LLMGATE_<ID>_API_KEY        - API key
//	LLMGATE_<ID>_MODELS         - Model pool, comma-separated (required)
//	LLMGATE_<ID>_TIMEOUT        - Per-attempt timeout (default: 60s)
//	LLMGATE_<ID>_PROJECT        - Vertex AI project
//	LLMGATE_<ID>_LOCATION       - Vertex AI location
//	LLMGATE_RETRY_MAX_ATTEMPTS  - Attempts per provider (default: 3)
//	LLMGATE_RETRY_INITIAL_DELAY - First backoff (default: 500ms)
//	LLMGATE_RETRY_MAX_DELAY     - Longest backoff (default: 8s)
//	LLMGATE_RETRY_MAX_WAIT      - Total backoff per provider (default: 30s)
//	LLMGATE_QUERY_TIMEOUT       - Deadline for one query (default: 3m)
//
// Usage:
//
//	go run ./cmd/llmgate
//	go run ./cmd/llmgate -mcp
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/novelvision/llmgate/gateway"
	"github.com/novelvision/llmgate/internal/config"
	"github.com/novelvision/llmgate/mcp"
)

const version = "1.0.0"

func main() {
	serveMCP := flag.Bool("mcp", false, "serve the MCP tools over stdio instead of HTTP")
	envFile := flag.String("env", "", "load environment from this file instead of ./.env")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	// Load configuration
	cfg, err := config.Load(envFiles...)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	gw, err := gateway.New(gateway.Config{
		Providers: cfg.Providers,
		Retry:     &cfg.Retry,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to create gateway", "error", err)
		os.Exit(1)
	}

	if *serveMCP {
		slog.Info("MCP server starting on stdio", "providers", gw.Providers())
		if err := mcp.ServeStdio(gw,
			mcp.WithName("llmgate"),
			mcp.WithVersion(version),
			mcp.WithQueryTimeout(cfg.QueryTimeout),
		); err != nil {
			slog.Error("MCP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newMux(gw, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.QueryTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting",
		"addr", server.Addr,
		"providers", gw.Providers(),
		"query_timeout", cfg.QueryTimeout)
	for _, p := range cfg.Providers {
		slog.Debug("provider configured", "provider", p.String())
	}

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// newLogger builds the process logger. It always writes to stderr so that
// stdout stays free for the MCP stdio transport.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
