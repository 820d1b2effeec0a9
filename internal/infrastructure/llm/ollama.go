package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	ollamaChatPath     = "/api/chat"
	ollamaGeneratePath = "/api/generate"
	ollamaTagsPath     = "/api/tags"
)

// OllamaClient talks to a local Ollama server through either the chat or
// the generate endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	path    string
	http    *http.Client
}

var _ ports.LanguageModel = (*OllamaClient)(nil)

// NewOllamaChat builds a client for /api/chat.
func NewOllamaChat(cfg config.OllamaConfig) *OllamaClient {
	return newOllama(cfg, ollamaChatPath)
}

// NewOllamaGenerate builds a client for /api/generate.
func NewOllamaGenerate(cfg config.OllamaConfig) *OllamaClient {
	return newOllama(cfg, ollamaGeneratePath)
}

func newOllama(cfg config.OllamaConfig, path string) *OllamaClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		path:    path,
		http:    &http.Client{Timeout: timeout},
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages,omitempty"`
	Prompt   string          `json:"prompt,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaResponse struct {
	Message  ollamaMessage `json:"message"`
	Response string        `json:"response"`
}

// Complete sends one non-streaming request and returns the model text.
func (c *OllamaClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	subject := "ollama " + model

	payload := ollamaRequest{
		Model:  model,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Options.Temperature,
			NumPredict:  req.Options.MaxTokens,
			TopK:        req.Options.TopK,
			TopP:        req.Options.TopP,
		},
	}
	if c.path == ollamaChatPath {
		payload.Messages = []ollamaMessage{{Role: "user", Content: req.Prompt}}
	} else {
		payload.Prompt = req.Prompt
	}

	var resp ollamaResponse
	if err := postJSON(ctx, c.http, c.baseURL+c.path, nil, payload, &resp); err != nil {
		return "", domain.Fail(domain.ReasonBackend, subject, err)
	}

	text := resp.Response
	if c.path == ollamaChatPath {
		text = resp.Message.Content
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.Fail(domain.ReasonEmptyResponse, subject, nil)
	}
	return text, nil
}

// Ping checks the server is up by listing local models.
func (c *OllamaClient) Ping(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := getJSON(ctx, c.http, c.baseURL+ollamaTagsPath, &tags); err != nil {
		return domain.Fail(domain.ReasonBackend, "ollama", err)
	}
	if c.model == "" {
		return nil
	}
	for _, m := range tags.Models {
		if m.Name == c.model {
			return nil
		}
	}
	return domain.Fail(domain.ReasonBackend, "ollama", fmt.Errorf("model %s is not pulled", c.model))
}
