// Package summarize turns note text into a short summary through a
// completion provider. It makes exactly one upstream attempt per call.
package summarize

import (
	"context"
	"net/http"
	"strings"

	"notable/notable/services/llm"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/jsonutils"
	"notable/notable/utils/logging"
	"notable/notable/utils/metrics"

	"go.uber.org/zap"
)

type Proxy struct {
	provider llm.CompletionProvider
	prompts  Prompts
	metrics  *metrics.Collector
}

func NewProxy(provider llm.CompletionProvider, prompts Prompts, m *metrics.Collector) *Proxy {
	return &Proxy{provider: provider, prompts: prompts, metrics: m}
}

func (p *Proxy) Provider() string { return p.provider.Name() }

// Summarize validates text, sends a single completion request and returns the
// trimmed first choice. Errors keep their kind: validation for blank text,
// config for a missing key, upstream for a non-2xx answer or a blank choice.
func (p *Proxy) Summarize(ctx context.Context, text string) (string, error) {
	defer logging.LogDuration(ctx, "summarize_proxy")()
	if strings.TrimSpace(text) == "" {
		p.metrics.Summarize(p.provider.Name(), "invalid")
		return "", apperrors.Validation("summarize.Summarize", "Text is required")
	}

	req := llm.ChatRequest{
		Model: p.prompts.Model,
		Messages: []llm.Message{
			{Role: "system", Content: p.prompts.SystemPrompt},
			{Role: "user", Content: p.prompts.UserPrefix + text},
		},
		Temperature: p.prompts.Temperature,
		MaxTokens:   p.prompts.MaxTokens,
	}
	out, err := p.provider.Complete(ctx, req)
	if err != nil {
		p.metrics.Summarize(p.provider.Name(), string(resultKind(err)))
		logging.ErrorLogger.Error("summarize upstream failed",
			zap.String("provider", p.provider.Name()), zap.Error(err))
		return "", err
	}
	summary := jsonutils.CleanCompletion(out)
	if summary == "" {
		p.metrics.Summarize(p.provider.Name(), "empty")
		logging.ErrorLogger.Error("summarize upstream returned no text", zap.String("provider", p.provider.Name()))
		return "", apperrors.Upstream("summarize.Summarize", http.StatusBadGateway, "empty completion")
	}
	p.metrics.Summarize(p.provider.Name(), "ok")
	return summary, nil
}

func resultKind(err error) apperrors.Kind {
	if k := apperrors.KindOf(err); k != "" {
		return k
	}
	return "error"
}
