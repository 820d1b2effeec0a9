package llm

import (
	"fmt"
	"strings"

	"NewsRelay/internal/config"
	"NewsRelay/internal/ports"
)

// Provider names accepted in model role configuration.
const (
	ProviderOllama         = "ollama"
	ProviderOllamaGenerate = "ollama-generate"
	ProviderChatGPT        = "chatgpt"
	ProviderGemini         = "gemini"
)

// New returns the client for a provider name.
func New(provider string, cfg config.ProvidersConfig) (ports.LanguageModel, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOllama, "":
		return NewOllamaChat(cfg.Ollama), nil
	case ProviderOllamaGenerate:
		return NewOllamaGenerate(cfg.Ollama), nil
	case ProviderChatGPT, "openai":
		return NewChatGPTClient(cfg.ChatGPT), nil
	case ProviderGemini:
		return NewGeminiClient(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// Options converts a role configuration into sampling options.
func Options(cfg config.ModelConfig) ports.SamplingOptions {
	return ports.SamplingOptions{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		TopK:        cfg.TopK,
		TopP:        cfg.TopP,
	}
}
