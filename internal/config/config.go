package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Default model per provider, used when MODEL_NAME is unset.
var defaultModels = map[string]string{
	"anthropic": "claude-3-5-haiku-latest",
	"openai":    "gpt-4o-mini",
	"venice":    "venice-uncensored",
	"ollama":    "llama3.2",
	"mock":      "mock",
}

type Config struct {
	Port         string     `env:"PORT" envDefault:"8080"`
	Environment  string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level `env:"-"`

	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"mock"`
	ModelName       string        `env:"MODEL_NAME"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	VeniceAPIKey    string        `env:"VENICE_API_KEY"`
	OllamaURL       string        `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	Storage    string        `env:"STORAGE" envDefault:"memory"`
	RedisURL   string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	LockTTL    time.Duration `env:"LOCK_TTL" envDefault:"2m"`

	// ContentRating is G, PG, PG-13 or R. Narration is filtered below R.
	ContentRating string `env:"CONTENT_RATING" envDefault:"PG-13"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModels[cfg.LLMProvider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider and storage settings.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case "venice":
		if c.VeniceAPIKey == "" {
			return errors.New("VENICE_API_KEY is required for the venice provider")
		}
	case "ollama":
		if c.OllamaURL == "" {
			return errors.New("OLLAMA_URL is required for the ollama provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.Storage {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.LLMTimeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}
	// A lock that expires mid-generation lets a second action in.
	if c.LockTTL <= c.LLMTimeout {
		return fmt.Errorf("LOCK_TTL (%s) must exceed LLM_TIMEOUT (%s)", c.LockTTL, c.LLMTimeout)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
