package llmgate

import (
	"errors"
	"fmt"
	"time"
)

// DefaultProviderTimeout is the per-attempt timeout when a provider sets none.
const DefaultProviderTimeout = 60 * time.Second

// ProviderConfig describes one configured provider. It is loaded once at
// startup and treated as read-only afterwards.
type ProviderConfig struct {
	// ID names the provider; it must be unique within a configuration.
	ID Provider

	// Vendor selects the client implementation.
	Vendor Vendor

	// EndpointURL is the base URL of the provider API. Empty uses the vendor default.
	EndpointURL string

	// APIKey is an opaque credential.
	APIKey string

	// Models is the rotation pool, in order. It must not be empty.
	Models []string

	// Timeout bounds a single attempt. Zero means DefaultProviderTimeout.
	Timeout time.Duration

	// Project and Location are used by the vertex vendor only.
	Project  string
	Location string
}

// AttemptTimeout returns the effective per-attempt timeout.
func (c ProviderConfig) AttemptTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultProviderTimeout
}

// String describes the provider without exposing the API key.
func (c ProviderConfig) String() string {
	key := ""
	if c.APIKey != "" {
		key = "<redacted>"
	}
	return fmt.Sprintf("%s(vendor=%s endpoint=%q key=%s models=%v timeout=%s)",
		c.ID, c.Vendor, c.EndpointURL, key, c.Models, c.AttemptTimeout())
}

// Validate checks that a single provider entry is usable.
func (c ProviderConfig) Validate() error {
	if c.ID == "" {
		return errors.New("provider id is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("provider %s: model pool is empty", c.ID)
	}
	for i, m := range c.Models {
		if m == "" {
			return fmt.Errorf("provider %s: model %d is empty", c.ID, i)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("provider %s: negative timeout %s", c.ID, c.Timeout)
	}

	switch c.Vendor {
	case VendorOpenAI, VendorAnthropic, VendorGoogle:
		if c.APIKey == "" {
			return fmt.Errorf("provider %s: api key is required for %s", c.ID, c.Vendor)
		}
	case VendorCompat:
		if c.EndpointURL == "" {
			return fmt.Errorf("provider %s: endpoint url is required for %s", c.ID, c.Vendor)
		}
	case VendorVertex:
		if c.Project == "" || c.Location == "" {
			return fmt.Errorf("provider %s: project and location are required for %s", c.ID, c.Vendor)
		}
	default:
		return fmt.Errorf("provider %s: unknown vendor %q (must be openai, anthropic, google, vertex, or compat)", c.ID, c.Vendor)
	}
	return nil
}

// ValidateProviders validates every entry and checks that IDs are unique.
func ValidateProviders(providers []ProviderConfig) error {
	if len(providers) == 0 {
		return errors.New("no providers configured")
	}
	seen := make(map[Provider]bool, len(providers))
	for _, p := range providers {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
