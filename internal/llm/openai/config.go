package openai

import (
	"log/slog"
	"os"
	"time"
)

// Config for the OpenAI-compatible client. BaseURL accepts any
// chat-completions endpoint (OpenAI, OpenRouter, a local proxy).
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	MaxTokens   int           // completion cap, 0 = provider default
	Timeout     time.Duration // per-request ceiling

	// Pricing per million tokens, for the cost estimate. Zero disables it.
	PricePerMInputUSD  float64
	PricePerMOutputUSD float64
}

func (cfg Config) withDefaults() Config {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.PricePerMInputUSD == 0 && cfg.PricePerMOutputUSD == 0 {
		cfg.PricePerMInputUSD = 0.15
		cfg.PricePerMOutputUSD = 0.60
	}
	return cfg
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
