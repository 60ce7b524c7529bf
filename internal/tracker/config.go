package tracker

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Config holds configuration for a tracker integration.
// It wraps the config storage and provides a consistent interface
// for accessing tracker-specific settings.
type Config struct {
	// Prefix is the config key prefix for this tracker (e.g., "linear")
	Prefix string

	// Store provides access to the config storage
	Store ConfigStore

	// Context for config operations
	Ctx context.Context
}

// ConfigStore provides read access to the taskdrop configuration.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
}

// NewConfig creates a new tracker config with the given prefix and store.
func NewConfig(ctx context.Context, prefix string, store ConfigStore) *Config {
	return &Config{
		Prefix: prefix,
		Store:  store,
		Ctx:    ctx,
	}
}

// Get retrieves a config value by key, checking both the config store
// and environment variables. The key should not include the tracker prefix.
// Example: cfg.Get("api_key") for "linear" prefix looks up "linear.api_key"
// and falls back to "LINEAR_API_KEY" env var.
func (c *Config) Get(key string) (string, error) {
	fullKey := c.Prefix + "." + key

	if c.Store != nil {
		value, err := c.Store.GetConfig(c.ctx(), fullKey)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", fullKey, err)
		}
		if value != "" {
			return value, nil
		}
	}

	if value := os.Getenv(c.envVarName(key)); value != "" {
		return value, nil
	}
	return "", nil
}

// GetRequired is like Get but returns an error if the value is empty.
func (c *Config) GetRequired(key string) (string, error) {
	value, err := c.Get(key)
	if err != nil {
		return "", err
	}
	if value == "" {
		fullKey := c.Prefix + "." + key
		return "", fmt.Errorf("%s not configured\nSet %s in taskdrop.yaml\nOr: export %s=VALUE",
			fullKey, fullKey, c.envVarName(key))
	}
	return value, nil
}

func (c *Config) ctx() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// envVarName converts a config key to its environment variable name.
// Example: for prefix "linear" and key "api_key", returns "LINEAR_API_KEY"
func (c *Config) envVarName(key string) string {
	envKey := strings.ToUpper(c.Prefix + "_" + key)
	return strings.ReplaceAll(envKey, ".", "_")
}

// CommonConfig defines configuration keys used by all trackers.
var CommonConfig = struct {
	APIKey      string
	TeamID      string
	ProjectID   string
	APIEndpoint string
}{
	APIKey:      "api_key",
	TeamID:      "team_id",
	ProjectID:   "project_id",
	APIEndpoint: "api_endpoint",
}
