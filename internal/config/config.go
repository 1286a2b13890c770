package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	DataDir  string `env:"DATA_DIR" envDefault:"./data"`

	// LLMProvider selects the generation backend: "openai" or "ollama".
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`
	// ModelName is used for narrative generation (dialogue, world simulation).
	ModelName string `env:"MODEL_NAME" envDefault:"gpt-4o-mini"`
	// ClassifierModelName is used for intent classification. Empty means
	// ModelName is used for both.
	ClassifierModelName string `env:"CLASSIFIER_MODEL_NAME"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OllamaURL    string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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
