package controllers

import (
	"context"

	"notable/notable/services/notes"
)

// SummarizeController backs POST /api/summarize. It talks to the provider
// directly, so validation, config and upstream errors reach the client with
// their own status.
type SummarizeController struct {
	summarizer notes.Summarizer
}

func NewSummarizeController(s notes.Summarizer) *SummarizeController {
	return &SummarizeController{summarizer: s}
}

func (c *SummarizeController) Summarize(ctx context.Context, text string) (string, error) {
	return c.summarizer.Summarize(ctx, text)
}
