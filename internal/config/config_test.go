package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "mock", cfg.LLMProvider)
	assert.Equal(t, "mock", cfg.ModelName)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
	assert.Equal(t, "PG-13", cfg.ContentRating)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("STORAGE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelName)
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "redis", cfg.Storage)
}

func TestLoad_MissingKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}

func TestLoad_LockOutlivesTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("LLM_TIMEOUT", "5m")

	_, err := Load()
	assert.ErrorContains(t, err, "LOCK_TTL")

	t.Setenv("LOCK_TTL", "6m")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Minute, cfg.LockTTL)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{LLMProvider: "mock", Storage: "memory", LLMTimeout: time.Second, LockTTL: time.Minute}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "gemini" }, true},
		{"unknown storage", func(c *Config) { c.Storage = "disk" }, true},
		{"venice without key", func(c *Config) { c.LLMProvider = "venice" }, true},
		{"ollama with url", func(c *Config) { c.LLMProvider = "ollama"; c.OllamaURL = "http://x" }, false},
		{"zero timeout", func(c *Config) { c.LLMTimeout = 0 }, true},
		{"lock ttl equals timeout", func(c *Config) { c.LockTTL = c.LLMTimeout }, true},
		{"lock ttl below timeout", func(c *Config) { c.LLMTimeout = 5 * time.Minute }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
