package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/gateway"
	"github.com/novelvision/llmgate/internal/config"
)

const requestIDHeader = "X-Request-ID"

// Gateway is the part of the gateway the HTTP handlers need.
type Gateway interface {
	Query(ctx context.Context, req ai.ChatRequest) ai.ChatResult
}

// newMux wires the HTTP routes.
func newMux(gw Gateway, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/prompt/query", corsMiddleware(requestIDMiddleware(NewQueryHandler(gw, cfg.QueryTimeout))))
	mux.Handle("/api/config/providers", corsMiddleware(NewProvidersHandler(cfg.Providers)))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

// queryRequest is the JSON body of POST /api/prompt/query.
type queryRequest struct {
	SystemPrompt string   `json:"system_prompt"`
	UserPrompt   string   `json:"user_prompt"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	Provider     string   `json:"provider,omitempty"`
}

func (q queryRequest) chatRequest() (ai.ChatRequest, error) {
	opts := []ai.RequestOption{
		ai.WithSystemPrompt(q.SystemPrompt),
		ai.WithProviderHint(ai.Provider(q.Provider)),
	}
	if q.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*q.Temperature))
	}
	if q.MaxTokens != nil {
		opts = append(opts, ai.WithMaxTokens(*q.MaxTokens))
	}
	return ai.NewChatRequest(q.UserPrompt, opts...)
}

// QueryHandler runs prompt queries through the gateway.
type QueryHandler struct {
	gateway Gateway
	timeout time.Duration
}

// NewQueryHandler creates a handler bounding each query by timeout.
func NewQueryHandler(gw Gateway, timeout time.Duration) *QueryHandler {
	return &QueryHandler{gateway: gw, timeout: timeout}
}

// ServeHTTP handles POST requests and answers with a JSON ChatResult:
// 200 when text was produced, 502 when every provider failed.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Only accept POST
	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	log := slog.With("request_id", gateway.RequestIDFromContext(r.Context()))

	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Warn("invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := body.chatRequest()
	if err != nil {
		log.Warn("invalid query", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.gateway.Query(ctx, req)

	status := http.StatusOK
	if !result.OK() {
		status = http.StatusBadGateway
	}
	log.Info("query served",
		"status", status,
		"provider", result.Provider,
		"model", result.Model,
		"attempts", result.Attempts,
		"duration", time.Since(start))

	writeJSON(w, status, result)
}

type providerView struct {
	ID       ai.Provider `json:"id"`
	Vendor   ai.Vendor   `json:"vendor"`
	Endpoint string      `json:"endpoint,omitempty"`
	Models   []string    `json:"models"`
	Timeout  string      `json:"timeout"`
}

// ProvidersHandler lists the configured providers without their credentials.
type ProvidersHandler struct {
	views []providerView
}

// NewProvidersHandler snapshots the provider configuration.
func NewProvidersHandler(providers []ai.ProviderConfig) *ProvidersHandler {
	views := make([]providerView, 0, len(providers))
	for _, p := range providers {
		views = append(views, providerView{
			ID:       p.ID,
			Vendor:   p.Vendor,
			Endpoint: p.EndpointURL,
			Models:   append([]string(nil), p.Models...),
			Timeout:  p.AttemptTimeout().String(),
		})
	}
	return &ProvidersHandler{views: views}
}

// ServeHTTP handles GET requests.
func (h *ProvidersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.views})
}

// requestIDMiddleware propagates or assigns an X-Request-ID and hands it to
// the gateway through the request context.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(gateway.WithRequestID(r.Context(), id)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
