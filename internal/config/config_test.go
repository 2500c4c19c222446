package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate.
func validConfig() Config {
	return Config{
		Port:           5000,
		GroqAPIKey:     "gsk_test",
		GroqBaseURL:    DefaultGroqBaseURL,
		Model:          DefaultModel,
		Temperature:    0.6,
		MaxTokens:      500,
		GatewayTimeout: 30 * time.Second,
		WindowTurns:    10,
		MaxStoredTurns: 200,
		SessionTTL:     30 * time.Minute,
		MaxSessions:    1000,
		DocsDir:        "documents",
	}
}

func TestLoad_MissingAPIKeyFailsFast(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("PORT", "") // empty env vars are treated as unset
	t.Chdir(t.TempDir()) // no config.yaml in sight

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultGroqBaseURL, cfg.GroqBaseURL)
	assert.InDelta(t, 0.6, cfg.Temperature, 1e-6)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, DefaultWindowTurns, cfg.WindowTurns)
	assert.Equal(t, DefaultMaxStoredTurns, cfg.MaxStoredTurns)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 1000, cfg.MaxSessions)
	assert.Equal(t, "documents", cfg.DocsDir)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("PORT", "8080")
	t.Setenv("SCOLARITE_MODEL", "llama-3.1-8b-instant")
	t.Setenv("GROQ_BASE_URL", "http://localhost:9999/v1")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Model)
	assert.Equal(t, "http://localhost:9999/v1", cfg.GroqBaseURL)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing api key", func(c *Config) { c.GroqAPIKey = "" }, ErrMissingAPIKey},
		{"port zero", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"empty model", func(c *Config) { c.Model = "" }, ErrInvalidModelName},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"window zero", func(c *Config) { c.WindowTurns = 0 }, ErrInvalidWindowTurns},
		{"retention below window", func(c *Config) { c.MaxStoredTurns = 5 }, ErrInvalidMaxStoredTurns},
		{"session ttl zero", func(c *Config) { c.SessionTTL = 0 }, ErrInvalidSessionBounds},
		{"max sessions zero", func(c *Config) { c.MaxSessions = 0 }, ErrInvalidSessionBounds},
		{"gateway timeout zero", func(c *Config) { c.GatewayTimeout = 0 }, ErrInvalidGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SecretMasking(t *testing.T) {
	cfg := validConfig()
	cfg.GroqAPIKey = "gsk_super_secret_key_123"

	t.Run("String masks the key", func(t *testing.T) {
		s := cfg.String()
		assert.NotContains(t, s, "gsk_super_secret_key_123")
		assert.Contains(t, s, maskedValue)
	})

	t.Run("MarshalJSON masks the key", func(t *testing.T) {
		data, err := json.Marshal(cfg)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "gsk_super_secret_key_123")
	})

	t.Run("short secrets are fully masked", func(t *testing.T) {
		assert.Equal(t, maskedValue, maskSecret("abc"))
		assert.Equal(t, "", maskSecret(""))
	})

	t.Run("long secrets keep two edge chars", func(t *testing.T) {
		got := maskSecret("gsk_super_secret_key_123")
		assert.Equal(t, "gs<"+maskedValue+">23", got)
	})
}
