// Package notes is the Note Service: the single entry point the pages, the
// JSON API and the CLI use to read and change notes.
package notes

import (
	"context"
	"fmt"
	"strings"

	"notable/notable/events"
	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"
	"notable/notable/utils/metrics"

	"go.uber.org/zap"
)

// Summarizer produces a summary for a piece of text. The in-process proxy and
// the HTTP client for /api/summarize both satisfy it.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Publisher interface {
	Publish(e events.Event)
}

const requiredMessage = "Title and content are required."

type Service struct {
	opener     sources.Opener
	summarizer Summarizer
	bus        Publisher
	metrics    *metrics.Collector
}

func NewService(opener sources.Opener, summarizer Summarizer, bus Publisher, m *metrics.Collector) *Service {
	return &Service{opener: opener, summarizer: summarizer, bus: bus, metrics: m}
}

// PartialCreateError reports a note that was created but whose summary could
// not be attached. Note is the persisted note, without summary.
type PartialCreateError struct {
	Note *models.Note
	Err  error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("note %s created without summary: %v", e.Note.ID, e.Err)
}

func (e *PartialCreateError) Unwrap() error { return e.Err }

func (s *Service) store(id sources.Identity) sources.NoteStore {
	return s.opener.Open(id)
}

func (s *Service) List(ctx context.Context, id sources.Identity) ([]models.Note, error) {
	return s.store(id).List(ctx)
}

// Search lists the notes and keeps those matching term.
func (s *Service) Search(ctx context.Context, id sources.Identity, term string) ([]models.Note, error) {
	notes, err := s.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return Filter(notes, term), nil
}

func (s *Service) Get(ctx context.Context, id sources.Identity, noteID string) (*models.Note, error) {
	return s.store(id).GetByID(ctx, noteID)
}

func (s *Service) Create(ctx context.Context, id sources.Identity, title, content string) (*models.Note, error) {
	if err := validateFields(title, content); err != nil {
		return nil, err
	}
	note, err := s.store(id).Create(ctx, title, content)
	if err != nil {
		return nil, err
	}
	s.mutated("create", id.UserID, "")
	return note, nil
}

// CreateWithOptionalSummary creates the note and then, when summary is not
// blank, attaches it with a second update. The two writes are not atomic: if
// the second fails the note stays without a summary and the error is a
// *PartialCreateError.
func (s *Service) CreateWithOptionalSummary(ctx context.Context, id sources.Identity, title, content, summary string) (*models.Note, error) {
	note, err := s.Create(ctx, id, title, content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary) == "" {
		return note, nil
	}
	updated, err := s.store(id).Update(ctx, note.ID, models.NoteUpdate{Summary: &summary})
	if err != nil {
		logging.ErrorLogger.Error("attach summary failed",
			zap.String("note_id", note.ID), zap.Error(err))
		return note, &PartialCreateError{Note: note, Err: err}
	}
	s.mutated("update", id.UserID, note.ID)
	return updated, nil
}

func (s *Service) Update(ctx context.Context, id sources.Identity, noteID string, fields models.NoteUpdate) (*models.Note, error) {
	if fields.Empty() {
		return nil, apperrors.Validation("notes.Update", "Nothing to update.")
	}
	if (fields.Title != nil && strings.TrimSpace(*fields.Title) == "") ||
		(fields.Content != nil && strings.TrimSpace(*fields.Content) == "") {
		return nil, apperrors.Validation("notes.Update", requiredMessage)
	}
	note, err := s.store(id).Update(ctx, noteID, fields)
	if err != nil {
		return nil, err
	}
	s.mutated("update", id.UserID, noteID)
	return note, nil
}

func (s *Service) Delete(ctx context.Context, id sources.Identity, noteID string) error {
	if err := s.store(id).Delete(ctx, noteID); err != nil {
		return err
	}
	s.mutated("delete", id.UserID, noteID)
	return nil
}

// Summarize asks the summarizer for a summary of text. Failures come back
// as summarize errors wrapping the cause.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	if s.summarizer == nil {
		return "", apperrors.Summarize("notes.Summarize",
			apperrors.Config("notes.Summarize", "summarization is not configured"))
	}
	out, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return "", apperrors.Summarize("notes.Summarize", err)
	}
	return out, nil
}

// SummarizeNote summarizes the note's content and stores the result.
func (s *Service) SummarizeNote(ctx context.Context, id sources.Identity, noteID string) (*models.Note, error) {
	note, err := s.Get(ctx, id, noteID)
	if err != nil {
		return nil, err
	}
	summary, err := s.Summarize(ctx, note.Content)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, noteID, models.NoteUpdate{Summary: &summary})
}

func (s *Service) mutated(op, userID, noteID string) {
	s.metrics.Mutation(op)
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Kind: events.CollectionChanged, UserID: userID})
	if noteID != "" {
		s.bus.Publish(events.Event{Kind: events.NoteChanged, UserID: userID, NoteID: noteID})
	}
}

func validateFields(title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return apperrors.Validation("notes.Create", requiredMessage)
	}
	return nil
}

// Filter keeps the notes whose title, content or summary contains term,
// ignoring case. A blank term keeps everything.
func Filter(notes []models.Note, term string) []models.Note {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return notes
	}
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(n.Content), term) ||
			strings.Contains(strings.ToLower(n.SummaryText()), term) {
			out = append(out, n)
		}
	}
	return out
}
