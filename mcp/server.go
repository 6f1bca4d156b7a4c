// Package mcp exposes the gateway to MCP clients as a set of tools.
package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"
	ai "github.com/novelvision/llmgate"
)

// Gateway is the part of the gateway the MCP tools need.
type Gateway interface {
	Query(ctx context.Context, req ai.ChatRequest) ai.ChatResult
	Providers() []ai.Provider
	Pool(id ai.Provider) ([]string, error)
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name         string
	version      string
	queryTimeout time.Duration
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithQueryTimeout bounds each generate_text call. Zero leaves calls bounded
// only by the client's context.
func WithQueryTimeout(d time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.queryTimeout = d
	}
}

// NewServer creates an MCP server whose tools are backed by gw.
//
// Example:
//
//	mcpServer := mcp.NewServer(gw,
//	    mcp.WithName("llmgate"),
//	    mcp.WithQueryTimeout(2*time.Minute),
//	)
//
//	server.ServeStdio(mcpServer)
func NewServer(gw Gateway, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "llmgate",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(generateTextTool(), generateTextHandler(gw, cfg.queryTimeout))
	s.AddTool(listProvidersTool(), listProvidersHandler(gw))

	return s
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(gw Gateway, opts ...ServerOption) error {
	s := NewServer(gw, opts...)
	return server.ServeStdio(s)
}
