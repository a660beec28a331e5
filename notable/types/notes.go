package types

import (
	"notable/notable/sources/models"
)

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Summary *string `json:"summary,omitempty"`
}

func (r UpdateNoteRequest) Fields() models.NoteUpdate {
	return models.NoteUpdate{Title: r.Title, Content: r.Content, Summary: r.Summary}
}

// CreateNoteResponse is the created note. SummaryError is set when the note
// was stored but its summary could not be attached.
type CreateNoteResponse struct {
	models.Note
	SummaryError string `json:"summary_error,omitempty"`
}

type SummarizeRequest struct {
	Text string `json:"text"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type ArchiveResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ArchiveList holds archive file names, oldest first.
type ArchiveList struct {
	Archives []string `json:"archives"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
