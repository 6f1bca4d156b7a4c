// Package rotator spreads requests across a provider's model pool in
// round-robin order.
//
// Each provider has its own cursor guarded by its own lock, so callers that
// rotate one provider never wait on callers rotating another. A cursor is
// created the first time its provider is used.
package rotator

import (
	"errors"
	"fmt"
	"sync"

	ai "github.com/novelvision/llmgate"
)

// ErrUnknownProvider is returned for a provider that has no configured pool.
var ErrUnknownProvider = errors.New("unknown provider")

// Rotator hands out model identifiers per provider in round-robin order.
// It is safe for concurrent use.
type Rotator struct {
	pools map[ai.Provider][]string

	mu    sync.RWMutex
	slots map[ai.Provider]*slot
}

// slot is the rotation state of one provider.
// Invariant: 0 <= cursor < len(models).
type slot struct {
	mu     sync.Mutex
	models []string
	cursor int
}

// New creates a rotator over the given pools. Pools are copied; each must be non-empty.
func New(pools map[ai.Provider][]string) (*Rotator, error) {
	r := &Rotator{
		pools: make(map[ai.Provider][]string, len(pools)),
		slots: make(map[ai.Provider]*slot, len(pools)),
	}
	for p, models := range pools {
		if len(models) == 0 {
			return nil, fmt.Errorf("provider %s: model pool is empty", p)
		}
		r.pools[p] = append([]string(nil), models...)
	}
	return r, nil
}

// FromConfigs creates a rotator with one pool per provider config.
func FromConfigs(providers []ai.ProviderConfig) (*Rotator, error) {
	pools := make(map[ai.Provider][]string, len(providers))
	for _, p := range providers {
		pools[p.ID] = p.Models
	}
	return New(pools)
}

// Next advances the provider's cursor and returns the model at the new position.
// Consecutive calls cycle through the whole pool before repeating; a pool of
// one model always returns that model.
func (r *Rotator) Next(p ai.Provider) (string, error) {
	s, err := r.slot(p)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = (s.cursor + 1) % len(s.models)
	return s.models[s.cursor], nil
}

// Current returns the model at the provider's cursor without advancing it.
func (r *Rotator) Current(p ai.Provider) (string, error) {
	s, err := r.slot(p)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models[s.cursor], nil
}

// Pool returns a copy of the provider's configured models.
func (r *Rotator) Pool(p ai.Provider) ([]string, error) {
	models, ok := r.pools[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	return append([]string(nil), models...), nil
}

// slot returns the provider's rotation state, creating it on first use.
func (r *Rotator) slot(p ai.Provider) (*slot, error) {
	r.mu.RLock()
	s, ok := r.slots[p]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	models, ok := r.pools[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := r.slots[p]; ok {
		return s, nil
	}
	s = &slot{models: models}
	r.slots[p] = s
	return s, nil
}
