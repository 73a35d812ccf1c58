package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store      StoreConfig
	LLM        LLMConfig
	RateLimit  RateLimitConfig
	Generation GenerationConfig
}

// StoreConfig holds persistence-related configuration
type StoreConfig struct {
	Path string // SQLite state file; ":memory:" for throwaway runs
}

// LLMConfig holds provider-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// RateLimitConfig holds the tunables for request spacing. Per-model base
// delays come from the static table in the ratelimit package; these knobs
// scale the defaults for unknown models.
type RateLimitConfig struct {
	DefaultRequestsPerMinute int
	DefaultBaseDelay         time.Duration
}

// GenerationConfig holds orchestration-level knobs
type GenerationConfig struct {
	AggregationThreshold int           // min occurrences for a journal tag to count as active
	QuotaBackoff         time.Duration // fallback batch backoff when no retry-after is suggested
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: getEnv("STATE_DB_PATH", "comments.db"),
		},
		LLM: LLMConfig{
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 600),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 2*time.Minute),
		},
		RateLimit: RateLimitConfig{
			DefaultRequestsPerMinute: getEnvAsInt("RATE_DEFAULT_RPM", 10),
			DefaultBaseDelay:         getEnvAsDuration("RATE_DEFAULT_BASE_DELAY", 6*time.Second),
		},
		Generation: GenerationConfig{
			AggregationThreshold: getEnvAsInt("AGGREGATION_THRESHOLD", 2),
			QuotaBackoff:         getEnvAsDuration("QUOTA_BACKOFF", 15*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Generation.AggregationThreshold < 1 {
		return NewAppError("CONFIG_ERROR", "AGGREGATION_THRESHOLD must be >= 1", ErrInvalidInput)
	}
	return nil
}
