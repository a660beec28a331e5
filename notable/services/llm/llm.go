// Package llm holds the chat-completion providers the summarizer can use.
// Groq and OpenAI speak the same OpenAI-style protocol; Ollama has its own.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"notable/notable/config"
	"notable/notable/utils/apperrors"
	httputils "notable/notable/utils/http"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionProvider returns the text of the first completion choice.
type CompletionProvider interface {
	Name() string
	DefaultModel() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// NewProvider builds the provider named by cfg.LLMProvider. A missing API key
// is not an error here; it is reported on every Complete call instead.
func NewProvider(cfg config.Config, client *http.Client) (CompletionProvider, error) {
	switch cfg.LLMProvider {
	case ProviderGroq, "":
		return NewGroqClient(cfg.GroqAPIKey, client), nil
	case ProviderOpenAI:
		return NewGPTClient(cfg.OpenAIAPIKey, client), nil
	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaURL, client), nil
	default:
		return nil, apperrors.Config("llm.NewProvider", fmt.Sprintf("unknown llm provider %q", cfg.LLMProvider))
	}
}

// upstreamError turns a transport failure into the error taxonomy. Non-2xx
// answers keep their status and body so the HTTP layer can relay them.
func upstreamError(op string, err error) error {
	var se *httputils.StatusError
	if errors.As(err, &se) {
		return apperrors.Upstream(op, se.Status, se.Body)
	}
	return fmt.Errorf("%s: %w", op, err)
}
