package chat

import (
	"context"

	"leadedge_backend/platform/ai/gemini"
	"leadedge_backend/platform/ai/openai"
	"leadedge_backend/platform/config"
)

const (
	temperature = 0.3
	maxTokens   = 512
)

// Provider answers a single user message under a system prompt.
type Provider interface {
	// Name is stored with each chat log entry.
	Name() string
	Complete(ctx context.Context, system, message string) (string, error)
}

type geminiProvider struct {
	client *gemini.Client
}

func (geminiProvider) Name() string { return "gemini" }

func (p geminiProvider) Complete(ctx context.Context, system, message string) (string, error) {
	return p.client.Complete(ctx, system, message)
}

type openAIProvider struct {
	client *openai.Client
}

func (openAIProvider) Name() string { return "openai" }

func (p openAIProvider) Complete(ctx context.Context, system, message string) (string, error) {
	return p.client.Complete(ctx, system, message)
}

// NewProvider returns the Gemini provider when a Gemini key is set, the
// OpenAI-compatible provider when an OpenAI key is set, and nil otherwise.
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	if key := cfg.GetGeminiAPIKey(); key != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      key,
			Model:       cfg.GetGeminiModel(),
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return nil, err
		}
		return geminiProvider{client: client}, nil
	}

	if key := cfg.GetOpenAIAPIKey(); key != "" {
		return openAIProvider{client: openai.NewClient(openai.Config{
			APIKey:      key,
			BaseURL:     cfg.GetOpenAIBaseURL(),
			Model:       cfg.GetOpenAIModel(),
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})}, nil
	}

	return nil, nil
}
