package llm

import (
	"context"
	"net/http"
	"strings"

	httputils "notable/notable/utils/http"
	"notable/notable/utils/logging"
)

type OllamaClient struct {
	baseURL string
	http    *http.Client
}

func NewOllamaClient(baseURL string, client *http.Client) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{baseURL: strings.TrimRight(baseURL, "/") + "/api", http: client}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *OllamaClient) Name() string         { return ProviderOllama }
func (c *OllamaClient) DefaultModel() string { return "llama3" }

func (c *OllamaClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "ollama_service_run")()
	if req.Model == "" {
		req.Model = c.DefaultModel()
	}
	body := ollamaRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	var resp ollamaResponse
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat", body, &resp); err != nil {
		return "", upstreamError("ollama.Complete", err)
	}
	return resp.Message.Content, nil
}
