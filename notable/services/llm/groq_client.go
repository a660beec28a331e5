package llm

import (
	"context"
	"fmt"
	"net/http"

	"notable/notable/utils/apperrors"
	httputils "notable/notable/utils/http"
	"notable/notable/utils/logging"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	openAIBaseURL = "https://api.openai.com/v1"
)

// ChatClient talks to any OpenAI-compatible /chat/completions endpoint.
type ChatClient struct {
	name         string
	label        string
	baseURL      string
	apiKey       string
	defaultModel string
	http         *http.Client
}

// NewGroqClient returns a client pointing to the Groq Chat endpoint.
func NewGroqClient(apiKey string, client *http.Client) *ChatClient {
	return &ChatClient{
		name:         ProviderGroq,
		label:        "Groq",
		baseURL:      groqBaseURL,
		apiKey:       apiKey,
		defaultModel: "llama3-70b-8192",
		http:         client,
	}
}

func NewGPTClient(apiKey string, client *http.Client) *ChatClient {
	return &ChatClient{
		name:         ProviderOpenAI,
		label:        "OpenAI",
		baseURL:      openAIBaseURL,
		apiKey:       apiKey,
		defaultModel: "gpt-4o-mini",
		http:         client,
	}
}

// WithBaseURL points the client at another compatible server.
func (c *ChatClient) WithBaseURL(url string) *ChatClient {
	cp := *c
	cp.baseURL = url
	return &cp
}

func (c *ChatClient) Name() string         { return c.name }
func (c *ChatClient) DefaultModel() string { return c.defaultModel }

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, c.name+"_service_run")()
	op := c.name + ".Complete"
	if c.apiKey == "" {
		return "", apperrors.Config(op, c.label+" API key not configured")
	}
	if req.Model == "" {
		req.Model = c.defaultModel
	}

	var resp chatCompletionResponse
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	if err := httputils.PostJSONWithAuth(ctx, c.http, url, c.apiKey, req, &resp); err != nil {
		return "", upstreamError(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Upstream(op, http.StatusBadGateway, "no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
