// Package config loads taskdrop configuration from taskdrop.yaml, TASKDROP_*
// environment variables, and the conventional service variables
// (LINEAR_API_KEY, ANTHROPIC_API_KEY, SLACK_BOT_TOKEN, ...).
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton, searching
// ./taskdrop.yaml and $HOME/.config/taskdrop/taskdrop.yaml.
// Should be called once at application startup.
func Initialize() error {
	return InitializeWithFile("")
}

// InitializeWithFile is like Initialize but reads an explicit config file
// when path is non-empty. A missing explicit file is an error; a missing
// file on the search path is not.
func InitializeWithFile(path string) error {
	v = viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("taskdrop")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "taskdrop"))
		}
	}

	v.SetEnvPrefix("TASKDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, k := range Keys {
		if k.Default != "" {
			v.SetDefault(k.Key, k.Default)
		}
		envs := []string{envName(k.Key)}
		if k.EnvVar != "" {
			envs = append(envs, k.EnvVar)
		}
		if err := v.BindEnv(append([]string{k.Key}, envs...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", k.Key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// envName returns the TASKDROP_-prefixed variable for a key.
func envName(key string) string {
	return "TASKDROP_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetInt64 retrieves a 64-bit integer configuration value
func GetInt64(key string) int64 {
	if v == nil {
		return 0
	}
	return v.GetInt64(key)
}

// Set sets a configuration value (overrides file and env).
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// Store exposes the loaded configuration as a tracker.ConfigStore.
type Store struct{}

// GetConfig returns the value for key, or "" when unset.
func (Store) GetConfig(_ context.Context, key string) (string, error) {
	if v == nil {
		return "", errors.New("config not initialized")
	}
	return v.GetString(key), nil
}
