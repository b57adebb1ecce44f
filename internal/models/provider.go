package models

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Provider names accepted by configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// Options carries the credentials and endpoints the adapters need.
type Options struct {
	Model        string
	OpenAIAPIKey string
	GoogleAPIKey string
	LocalBaseURL string
}

// New selects a model adapter by provider name. One orchestrator, pluggable
// back-ends; the provider is a deployment choice, not a code fork.
func New(ctx context.Context, provider string, opts Options) (model.LLM, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIModel(opts.Model, opts.OpenAIAPIKey)
	case ProviderLocal:
		return NewLocalModel(opts.Model, opts.LocalBaseURL)
	case ProviderGemini:
		if opts.GoogleAPIKey == "" {
			return nil, fmt.Errorf("google API key is required")
		}
		return gemini.NewModel(ctx, opts.Model, &genai.ClientConfig{
			APIKey:  opts.GoogleAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
