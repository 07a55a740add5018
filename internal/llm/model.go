// Package llm wraps langchaingo models for the scoring collaborator.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifies the LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config holds LLM provider configuration.
type Config struct {
	Provider        Provider
	Model           string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// Usage carries token counts for one generation, when the provider
// reports them.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case ProviderOllama, "":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.OllamaHost != "" {
			opts = append(opts, ollama.WithServerURL(cfg.OllamaHost))
		}
		model, err = ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.Model,
	}, nil
}

// GenerateWithSystem generates text with a system prompt and reports
// token usage when the provider includes it.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", Usage{}, fmt.Errorf("generate with system: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	return choice.Content, usageFromInfo(choice.GenerationInfo), nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// usageFromInfo extracts token counts from provider generation info.
// Providers that do not report usage yield zeros.
func usageFromInfo(info map[string]any) Usage {
	return Usage{
		InputTokens:  intFromInfo(info, "PromptTokens", "input_tokens"),
		OutputTokens: intFromInfo(info, "CompletionTokens", "output_tokens"),
	}
}

func intFromInfo(info map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
