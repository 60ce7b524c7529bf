package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Configuration keys.
const (
	KeyTracker            = "tracker"
	KeyLinearAPIKey       = "linear.api_key"
	KeyLinearTeamID       = "linear.team_id"
	KeyLinearProjectID    = "linear.project_id"
	KeyLinearAPIEndpoint  = "linear.api_endpoint"
	KeyAIAPIKey           = "ai.api_key"
	KeyAIModel            = "ai.model"
	KeyAIMaxTokens        = "ai.max_tokens"
	KeyAIBaseURL          = "ai.base_url"
	KeySlackBotToken      = "slack.bot_token"
	KeySlackAppToken      = "slack.app_token"
	KeySlackDebug         = "slack.debug"
	KeyHealthPort         = "health.port"
	KeyNATSURL            = "nats.url"
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
	KeyLogFormat          = "log.format"
	KeyBatchPartialPolicy = "batch.partial_policy"
	KeyOTelEnabled        = "otel.enabled"
	KeyOTelStdout         = "otel.stdout"
	KeyOTelEndpoint       = "otel.endpoint"
	KeyOTelServiceName    = "otel.service_name"
)

// Key describes a taskdrop configuration key.
type Key struct {
	Key         string // Full key name (e.g., "linear.api_key")
	Description string // Human-readable description
	EnvVar      string // Conventional env var accepted besides TASKDROP_<KEY>
	Secret      bool   // If true, never echo the value
	Default     string // Default value (empty = no default)
	Validate    func(string) error
}

// Keys defines every recognized configuration key.
var Keys = []Key{
	{
		Key:         KeyTracker,
		Description: "Issue tracker plugin name",
		Default:     "linear",
	},
	{
		Key:         KeyLinearAPIKey,
		Description: "Linear API key",
		EnvVar:      "LINEAR_API_KEY",
		Secret:      true,
	},
	{
		Key:         KeyLinearTeamID,
		Description: "Linear team ID that receives new issues",
		EnvVar:      "LINEAR_TEAM_ID",
	},
	{
		Key:         KeyLinearProjectID,
		Description: "Optional Linear project ID for new issues",
		EnvVar:      "LINEAR_PROJECT_ID",
	},
	{
		Key:         KeyLinearAPIEndpoint,
		Description: "Linear GraphQL endpoint",
		Default:     "https://api.linear.app/graphql",
	},
	{
		Key:         KeyAIAPIKey,
		Description: "Anthropic API key",
		EnvVar:      "ANTHROPIC_API_KEY",
		Secret:      true,
	},
	{
		Key:         KeyAIModel,
		Description: "Anthropic model used to structure tasks",
		Default:     "claude-haiku-4-5",
	},
	{
		Key:         KeyAIMaxTokens,
		Description: "Maximum output tokens per structuring call",
		Default:     "4096",
		Validate:    validatePositiveInt,
	},
	{
		Key:         KeyAIBaseURL,
		Description: "Override the Anthropic API base URL (proxies, gateways)",
		EnvVar:      "ANTHROPIC_BASE_URL",
	},
	{
		Key:         KeySlackBotToken,
		Description: "Slack bot token (xoxb-...)",
		EnvVar:      "SLACK_BOT_TOKEN",
		Secret:      true,
	},
	{
		Key:         KeySlackAppToken,
		Description: "Slack app-level token for Socket Mode (xapp-...)",
		EnvVar:      "SLACK_APP_TOKEN",
		Secret:      true,
	},
	{
		Key:         KeySlackDebug,
		Description: "Enable slack-go debug logging",
		Default:     "false",
		Validate:    validateBool,
	},
	{
		Key:         KeyHealthPort,
		Description: "Health and metrics HTTP port",
		EnvVar:      "HEALTH_PORT",
		Default:     "8080",
		Validate:    validatePort,
	},
	{
		Key:         KeyNATSURL,
		Description: "NATS server URL for batch events (empty disables)",
	},
	{
		Key:         KeyLogLevel,
		Description: "Log level (debug, info, warn, error)",
		Default:     "info",
		Validate:    validateLogLevel,
	},
	{
		Key:         KeyLogFile,
		Description: "Log file path, rotated (empty logs to stderr)",
	},
	{
		Key:         KeyLogFormat,
		Description: "Log format (text, json)",
		Default:     "text",
		Validate:    validateLogFormat,
	},
	{
		Key:         KeyBatchPartialPolicy,
		Description: "Undo ledger policy on partial create failure (track_succeeded, conservative)",
		Default:     "track_succeeded",
		Validate:    validatePartialPolicy,
	},
	{
		Key:         KeyOTelEnabled,
		Description: "Enable OpenTelemetry traces and metrics",
		Default:     "false",
		Validate:    validateBool,
	},
	{
		Key:         KeyOTelStdout,
		Description: "Pretty-print spans and metrics to stdout",
		Default:     "false",
		Validate:    validateBool,
	},
	{
		Key:         KeyOTelEndpoint,
		Description: "OTLP gRPC collector endpoint (host:port)",
		EnvVar:      "OTEL_EXPORTER_OTLP_ENDPOINT",
	},
	{
		Key:         KeyOTelServiceName,
		Description: "Service name reported to OpenTelemetry",
		EnvVar:      "OTEL_SERVICE_NAME",
		Default:     "taskdrop",
	},
}

// keyMap is a lookup table built from Keys.
var keyMap map[string]*Key

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Key] = &Keys[i]
	}
}

// LookupKey returns the Key for the given name, or nil.
func LookupKey(key string) *Key {
	return keyMap[key]
}

// Validate checks every set value against its key's validator.
func Validate() error {
	var problems []string
	for _, k := range Keys {
		if k.Validate == nil {
			continue
		}
		value := GetString(k.Key)
		if value == "" {
			continue
		}
		if err := k.Validate(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", k.Key, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Require returns an error naming every listed key that has no value.
func Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if GetString(key) != "" {
			continue
		}
		hint := envName(key)
		if k := LookupKey(key); k != nil && k.EnvVar != "" {
			hint = k.EnvVar
		}
		missing = append(missing, fmt.Sprintf("%s (or %s)", key, hint))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Redacted returns the value of key for display, masking secrets.
func Redacted(key string) string {
	value := GetString(key)
	if k := LookupKey(key); k != nil && k.Secret && value != "" {
		if len(value) <= 8 {
			return "****"
		}
		return value[:4] + "****"
	}
	return value
}

func validatePort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number, got %q", value)
	}
	return nil
}

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error; got %q", value)
	}
}

func validateLogFormat(value string) error {
	switch strings.ToLower(value) {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("must be text or json, got %q", value)
	}
}

func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0", "yes", "no":
		return nil
	default:
		return fmt.Errorf("must be true or false, got %q", value)
	}
}

func validatePartialPolicy(value string) error {
	switch strings.ToLower(value) {
	case "track_succeeded", "track-succeeded", "conservative":
		return nil
	default:
		return fmt.Errorf("must be track_succeeded or conservative, got %q", value)
	}
}
