// Package config loads gateway configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	ai "github.com/novelvision/llmgate"
)

const envPrefix = "LLMGATE_"

// Config holds the server configuration loaded from environment variables.
type Config struct {
	// Server
	Port      string
	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json

	// Providers in priority order.
	Providers []ai.ProviderConfig

	// Retry policy applied to every provider.
	Retry ai.RetryConfig

	// QueryTimeout is the overall deadline for one REST or MCP query.
	QueryTimeout time.Duration
}

// Load loads configuration from environment variables.
// It loads the given .env files first, or ./.env when none are given
// (silent fail if not found). Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	godotenv.Load(envFiles...) // Load .env file if present
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	defaults := ai.DefaultRetryConfig()
	cfg := &Config{
		Port:      getEnvOrDefault(envPrefix+"PORT", "8080"),
		LogLevel:  strings.ToLower(getEnvOrDefault(envPrefix+"LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnvOrDefault(envPrefix+"LOG_FORMAT", "text")),
		Retry: ai.RetryConfig{
			MaxAttempts:  getEnvIntOrDefault(envPrefix+"RETRY_MAX_ATTEMPTS", defaults.MaxAttempts),
			InitialDelay: getEnvDurationOrDefault(envPrefix+"RETRY_INITIAL_DELAY", defaults.InitialDelay),
			MaxDelay:     getEnvDurationOrDefault(envPrefix+"RETRY_MAX_DELAY", defaults.MaxDelay),
			Multiplier:   defaults.Multiplier,
			Jitter:       defaults.Jitter,
			MaxTotalWait: getEnvDurationOrDefault(envPrefix+"RETRY_MAX_WAIT", defaults.MaxTotalWait),
		},
		QueryTimeout: getEnvDurationOrDefault(envPrefix+"QUERY_TIMEOUT", 3*time.Minute),
	}

	if getEnvBoolOrDefault(envPrefix+"RETRY_DISABLED", false) {
		cfg.Retry = ai.DisabledRetryConfig()
	}

	for _, id := range splitList(os.Getenv(envPrefix + "PROVIDERS")) {
		cfg.Providers = append(cfg.Providers, providerFromEnv(id))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// providerFromEnv reads the LLMGATE_<ID>_* variables for one provider.
func providerFromEnv(id string) ai.ProviderConfig {
	prefix := ProviderPrefix(id)
	return ai.ProviderConfig{
		ID:          ai.Provider(id),
		Vendor:      ai.Vendor(strings.ToLower(getEnvOrDefault(prefix+"VENDOR", string(ai.VendorOpenAI)))),
		EndpointURL: os.Getenv(prefix + "ENDPOINT"),
		APIKey:      os.Getenv(prefix + "API_KEY"),
		Models:      splitList(os.Getenv(prefix + "MODELS")),
		Timeout:     getEnvDurationOrDefault(prefix+"TIMEOUT", ai.DefaultProviderTimeout),
		Project:     os.Getenv(prefix + "PROJECT"),
		Location:    os.Getenv(prefix + "LOCATION"),
	}
}

// ProviderPrefix returns the variable prefix for a provider ID: the ID upper
// cased with every non-alphanumeric character replaced by an underscore.
func ProviderPrefix(id string) string {
	var b strings.Builder
	b.WriteString(envPrefix)
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte('_')
	return b.String()
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New(envPrefix + "PROVIDERS is required (comma-separated provider ids in priority order)")
	}
	for _, p := range c.Providers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w (set %s* variables)", err, ProviderPrefix(string(p.ID)))
		}
	}
	if err := ai.ValidateProviders(c.Providers); err != nil {
		return err
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%sRETRY_MAX_ATTEMPTS must be at least 1, got %d", envPrefix, c.Retry.MaxAttempts)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("%sQUERY_TIMEOUT must be positive, got %s", envPrefix, c.QueryTimeout)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s (must be text or json)", c.LogFormat)
	}

	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (must be debug, info, warn, or error)", s)
	}
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
