package controllers

import (
	"context"
	"errors"

	"notable/notable/services/notes"
	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/sources/storage"
	"notable/notable/types"
)

// Archiver stores note snapshots. *storage.MinIOClient satisfies it.
type Archiver interface {
	UploadSnapshot(ctx context.Context, s storage.Snapshot) (string, error)
	ListSnapshots(ctx context.Context, userID string) ([]string, error)
	GetSnapshot(ctx context.Context, userID, name string) (*storage.Snapshot, error)
}

var ErrArchiveDisabled = errors.New("note archive is not configured")

type NotesController struct {
	svc     *notes.Service
	archive Archiver
}

// NewNotesController wires the JSON note operations. archive may be nil.
func NewNotesController(svc *notes.Service, archive Archiver) *NotesController {
	return &NotesController{svc: svc, archive: archive}
}

func (c *NotesController) ListNotes(ctx context.Context, id sources.Identity, query string) ([]models.Note, error) {
	return c.svc.Search(ctx, id, query)
}

func (c *NotesController) GetNote(ctx context.Context, id sources.Identity, noteID string) (*models.Note, error) {
	return c.svc.Get(ctx, id, noteID)
}

// CreateNote stores the note and attaches the optional summary. A note that
// was stored without its summary is still a success; the attach failure is
// reported in SummaryError.
func (c *NotesController) CreateNote(ctx context.Context, id sources.Identity, req types.CreateNoteRequest) (*types.CreateNoteResponse, error) {
	note, err := c.svc.CreateWithOptionalSummary(ctx, id, req.Title, req.Content, req.Summary)
	var partial *notes.PartialCreateError
	if errors.As(err, &partial) {
		return &types.CreateNoteResponse{Note: *partial.Note, SummaryError: "Failed to attach summary"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &types.CreateNoteResponse{Note: *note}, nil
}

func (c *NotesController) UpdateNote(ctx context.Context, id sources.Identity, noteID string, req types.UpdateNoteRequest) (*models.Note, error) {
	return c.svc.Update(ctx, id, noteID, req.Fields())
}

func (c *NotesController) DeleteNote(ctx context.Context, id sources.Identity, noteID string) error {
	return c.svc.Delete(ctx, id, noteID)
}

func (c *NotesController) SummarizeNote(ctx context.Context, id sources.Identity, noteID string) (*models.Note, error) {
	return c.svc.SummarizeNote(ctx, id, noteID)
}

// Export returns every note of the caller as one snapshot.
func (c *NotesController) Export(ctx context.Context, id sources.Identity) (storage.Snapshot, error) {
	list, err := c.svc.List(ctx, id)
	if err != nil {
		return storage.Snapshot{}, err
	}
	return storage.NewSnapshot(id.UserID, list), nil
}

func (c *NotesController) Archive(ctx context.Context, id sources.Identity) (*types.ArchiveResponse, error) {
	if c.archive == nil {
		return nil, ErrArchiveDisabled
	}
	snap, err := c.Export(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := c.archive.UploadSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}
	return &types.ArchiveResponse{Key: key, Count: snap.Count}, nil
}

func (c *NotesController) ListArchives(ctx context.Context, id sources.Identity) (*types.ArchiveList, error) {
	if c.archive == nil {
		return nil, ErrArchiveDisabled
	}
	names, err := c.archive.ListSnapshots(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &types.ArchiveList{Archives: names}, nil
}

func (c *NotesController) GetArchive(ctx context.Context, id sources.Identity, name string) (*storage.Snapshot, error) {
	if c.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return c.archive.GetSnapshot(ctx, id.UserID, name)
}
