package gateway

import (
	"context"
	"errors"
	"fmt"

	ai "github.com/novelvision/llmgate"
	"github.com/novelvision/llmgate/internal/provider/anthropic"
	"github.com/novelvision/llmgate/internal/provider/compat"
	"github.com/novelvision/llmgate/internal/provider/google"
	"github.com/novelvision/llmgate/internal/provider/openai"
)

// Factory builds the client for one configured provider. It is called at
// most once per provider, on first use.
type Factory func(ctx context.Context, cfg ai.ProviderConfig) (ai.ChatProvider, error)

// DefaultFactory selects the vendor client named by cfg.Vendor.
func DefaultFactory(ctx context.Context, cfg ai.ProviderConfig) (ai.ChatProvider, error) {
	switch cfg.Vendor {
	case ai.VendorOpenAI:
		return openai.New(cfg), nil
	case ai.VendorAnthropic:
		return anthropic.New(cfg), nil
	case ai.VendorGoogle, ai.VendorVertex:
		newClient := google.New
		if cfg.Vendor == ai.VendorVertex {
			newClient = google.NewVertex
		}
		c, err := newClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ai.VendorCompat:
		return compat.New(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported vendor %q for provider %s", cfg.Vendor, cfg.ID)
	}
}

// client returns the ChatProvider for id, initializing it if needed.
// Construction runs under the provider's own init lock, so a slow factory only
// delays queries to that provider. A failed initialization is remembered so it
// is not retried on every query, unless it was caused by the caller's context.
func (g *Gateway) client(ctx context.Context, id ai.Provider) (ai.ChatProvider, error) {
	if c, ok, err := g.cached(id); ok {
		return c, err
	}

	lock := g.inits[id]
	lock.Lock()
	defer lock.Unlock()

	// Double-check after acquiring the init lock
	if c, ok, err := g.cached(id); ok {
		return c, err
	}

	c, err := g.factory(ctx, g.configs[id])

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to initialize provider %s: %w", id, err)
		if !isContextErr(ctx, err) {
			g.initErrs[id] = err
		}
		return nil, err
	}
	g.clients[id] = c
	return c, nil
}

// cached reports a client or initialization error already recorded for id.
func (g *Gateway) cached(id ai.Provider) (ai.ChatProvider, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if c, ok := g.clients[id]; ok {
		return c, true, nil
	}
	if err, ok := g.initErrs[id]; ok {
		return nil, true, err
	}
	return nil, false, nil
}

func isContextErr(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
