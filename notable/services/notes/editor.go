package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"notable/notable/sources"
	"notable/notable/sources/models"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	Saving
	Summarizing
	Deleting
	Error
	Closed
)

var stateNames = [...]string{"idle", "loading", "ready", "saving", "summarizing", "deleting", "error", "closed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrInvalidTransition = errors.New("invalid editor transition")

// Draft is the editable copy of a note. Summary holds a generated summary
// that has not been saved yet.
type Draft struct {
	Title   string
	Content string
	Summary string
}

// Editor is the edit session of one note. Each action moves it through an
// in-flight state and back to Ready, or to Error; from Error the user may
// invoke any action again. Nothing is retried automatically.
type Editor struct {
	mu       sync.Mutex
	svc      *Service
	identity sources.Identity
	noteID   string
	state    State
	note     *models.Note
	draft    Draft
}

func NewEditor(svc *Service, identity sources.Identity, noteID string) *Editor {
	return &Editor{svc: svc, identity: identity, noteID: noteID}
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Note() *models.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.note
}

func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the edited title and content. The summary draft is kept.
func (e *Editor) SetDraft(title, content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Title = title
	e.draft.Content = content
}

// SetSummaryDraft replaces the unsaved summary.
func (e *Editor) SetSummaryDraft(summary string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Summary = summary
}

// begin moves to the in-flight state when the current state allows it.
func (e *Editor) begin(to State, from ...State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range from {
		if e.state == s {
			if s == Error && to != Loading && e.note == nil {
				break
			}
			e.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, to, e.state)
}

func (e *Editor) finish(ok State, err error) {
	if err != nil {
		e.state = Error
		return
	}
	e.state = ok
}

// Load fetches the note and seeds the draft from it.
func (e *Editor) Load(ctx context.Context) error {
	if err := e.begin(Loading, Idle, Error); err != nil {
		return err
	}
	note, err := e.svc.Get(ctx, e.identity, e.noteID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		e.note = note
		e.draft = Draft{Title: note.Title, Content: note.Content, Summary: note.SummaryText()}
	}
	e.finish(Ready, err)
	return err
}

// Summarize generates a summary of the draft content and holds it in the
// draft until Save.
func (e *Editor) Summarize(ctx context.Context) (string, error) {
	if err := e.begin(Summarizing, Ready, Error); err != nil {
		return "", err
	}
	content := e.Draft().Content
	summary, err := e.svc.Summarize(ctx, content)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		e.draft.Summary = summary
	}
	e.finish(Ready, err)
	return summary, err
}

// Save persists the draft. The summary is only written when it differs from
// the stored one.
func (e *Editor) Save(ctx context.Context) (*models.Note, error) {
	if err := e.begin(Saving, Ready, Error); err != nil {
		return nil, err
	}
	e.mu.Lock()
	d, current := e.draft, e.note
	e.mu.Unlock()

	fields := models.NoteUpdate{Title: &d.Title, Content: &d.Content}
	if strings.TrimSpace(d.Summary) != "" && d.Summary != current.SummaryText() {
		fields.Summary = &d.Summary
	}
	note, err := e.svc.Update(ctx, e.identity, e.noteID, fields)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		e.note = note
		e.draft.Summary = note.SummaryText()
	}
	e.finish(Ready, err)
	return note, err
}

// Delete removes the note and closes the session.
func (e *Editor) Delete(ctx context.Context) error {
	if err := e.begin(Deleting, Ready, Error); err != nil {
		return err
	}
	err := e.svc.Delete(ctx, e.identity, e.noteID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finish(Closed, err)
	return err
}
