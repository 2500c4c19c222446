// Package config provides service configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml)
//  3. Default values
//
// The Groq API credential is required: Load fails fast when it is absent
// instead of letting the first chat request discover the problem.
//
// Error Handling:
//   - Sentinel errors for errors.Is() checks
//   - Wrapped with context via fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the required Groq API key is missing.
	ErrMissingAPIKey = errors.New("missing GROQ_API_KEY")

	// ErrInvalidPort indicates the listening port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidWindowTurns indicates the completion window is out of range.
	ErrInvalidWindowTurns = errors.New("invalid window turns")

	// ErrInvalidMaxStoredTurns indicates the retention cap is smaller than
	// the completion window.
	ErrInvalidMaxStoredTurns = errors.New("invalid max stored turns")

	// ErrInvalidSessionBounds indicates session eviction settings are out of range.
	ErrInvalidSessionBounds = errors.New("invalid session bounds")

	// ErrInvalidGatewayTimeout indicates the gateway timeout is not positive.
	ErrInvalidGatewayTimeout = errors.New("invalid gateway timeout")
)

const (
	// DefaultPort matches the original deployment of the service.
	DefaultPort = 5000

	// DefaultModel is the Groq model used for replies.
	DefaultModel = "llama-3.2-3b-fast"

	// DefaultWindowTurns is the number of most recent turns submitted to
	// the completion gateway per request.
	DefaultWindowTurns = 10

	// DefaultMaxStoredTurns caps the turns retained per session in memory.
	DefaultMaxStoredTurns = 200

	// DefaultGroqBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// Config stores service configuration.
// SECURITY: the API key is masked in MarshalJSON; update it when adding
// new sensitive fields.
type Config struct {
	// HTTP listener
	Port int `mapstructure:"port" json:"port"`

	// Completion gateway
	GroqAPIKey     string        `mapstructure:"groq_api_key" json:"groq_api_key"` // SENSITIVE: masked in MarshalJSON
	GroqBaseURL    string        `mapstructure:"groq_base_url" json:"groq_base_url"`
	Model          string        `mapstructure:"model" json:"model"`
	Temperature    float64       `mapstructure:"temperature" json:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens" json:"max_tokens"`
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout" json:"gateway_timeout"`

	// Conversation history
	WindowTurns    int           `mapstructure:"window_turns" json:"window_turns"`
	MaxStoredTurns int           `mapstructure:"max_stored_turns" json:"max_stored_turns"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" json:"session_ttl"`
	MaxSessions    int           `mapstructure:"max_sessions" json:"max_sessions"`

	// Reference documents
	DocsDir string `mapstructure:"docs_dir" json:"docs_dir"`

	// Logging
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// Load loads configuration.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)

	v.SetDefault("groq_base_url", DefaultGroqBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("temperature", 0.6)
	v.SetDefault("max_tokens", 500)
	v.SetDefault("gateway_timeout", 30*time.Second)

	v.SetDefault("window_turns", DefaultWindowTurns)
	v.SetDefault("max_stored_turns", DefaultMaxStoredTurns)
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("max_sessions", 1000)

	v.SetDefault("docs_dir", "documents")

	v.SetDefault("log_json", false)
	v.SetDefault("log_level", "info")
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("groq_api_key", "GROQ_API_KEY")
	mustBind("groq_base_url", "GROQ_BASE_URL")
	mustBind("port", "PORT")
	mustBind("model", "SCOLARITE_MODEL")
	mustBind("docs_dir", "SCOLARITE_DOCS_DIR")
	mustBind("log_level", "SCOLARITE_LOG_LEVEL")
	mustBind("log_json", "SCOLARITE_LOG_JSON")
}

// Validate checks all configuration values. Called by Load; exported so
// hand-built configs in tests can be checked the same way.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("%w: set the GROQ_API_KEY environment variable", ErrMissingAPIKey)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPort, c.Port)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %g (must be 0-2)", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if c.WindowTurns < 1 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidWindowTurns, c.WindowTurns)
	}
	if c.MaxStoredTurns < c.WindowTurns {
		return fmt.Errorf("%w: %d (must be >= window_turns %d)",
			ErrInvalidMaxStoredTurns, c.MaxStoredTurns, c.WindowTurns)
	}
	if c.SessionTTL <= 0 || c.MaxSessions < 1 {
		return fmt.Errorf("%w: session_ttl=%s max_sessions=%d",
			ErrInvalidSessionBounds, c.SessionTTL, c.MaxSessions)
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("%w: %s (must be positive)", ErrInvalidGatewayTimeout, c.GatewayTimeout)
	}
	return nil
}

// Addr returns the HTTP listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked; longer ones keep the first and last two characters for debug
// utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GroqAPIKey = maskSecret(a.GroqAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
