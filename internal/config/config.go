// Package config loads configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/pablomtz/saulo-agent/internal/models"
)

// Config holds runtime settings.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`

	// DatabaseURL selects the durable store; empty runs in-memory.
	DatabaseURL string `env:"DATABASE_URL"`

	Provider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model        string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	LocalLLMURL  string `env:"LOCAL_LLM_URL" envDefault:"http://localhost:11434/v1"`

	// EmbeddingModel enables insight similarity recall when set together
	// with GoogleAPIKey.
	EmbeddingModel string `env:"EMBEDDING_MODEL"`

	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	MaxOutputTokens int           `env:"MAX_OUTPUT_TOKENS" envDefault:"1000"`
	Temperature     float64       `env:"TEMPERATURE" envDefault:"0.8"`

	HistoryCap   int `env:"HISTORY_CAP" envDefault:"50"`
	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"10"`
	InsightLimit int `env:"INSIGHT_LIMIT" envDefault:"3"`

	TopK                int     `env:"TOP_K" envDefault:"3"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.7"`

	DefaultUserID string `env:"DEFAULT_USER_ID" envDefault:"pablo_main"`
}

// Parse reads the optional .env file and the environment and applies
// defaults, without checking provider credentials.
func Parse() (Config, error) {
	// Missing .env is fine; the system environment still applies.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Load parses the environment and validates the provider credentials.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}

	switch cfg.Provider {
	case models.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY is required for provider %q", cfg.Provider)
		}
	case models.ProviderGemini:
		if cfg.GoogleAPIKey == "" {
			return Config{}, fmt.Errorf("GOOGLE_API_KEY is required for provider %q", cfg.Provider)
		}
	case models.ProviderLocal:
		if cfg.LocalLLMURL == "" {
			return Config{}, fmt.Errorf("LOCAL_LLM_URL is required for provider %q", cfg.Provider)
		}
	default:
		return Config{}, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.Provider)
	}

	if cfg.EmbeddingModel != "" && cfg.GoogleAPIKey == "" {
		return Config{}, fmt.Errorf("GOOGLE_API_KEY is required when EMBEDDING_MODEL is set")
	}

	return cfg, nil
}
