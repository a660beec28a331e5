package psql

import (
	"context"

	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/sources/psql/dao"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"
)

// NoteStore serves notes from the notes table. Ownership is enforced in the
// queries since there is no row-level security outside Supabase.
type NoteStore struct {
	notes *dao.NoteDAO
}

func NewNoteStore(db *Database) *NoteStore {
	return &NoteStore{notes: dao.NewNoteDAO(db.DB)}
}

func (s *NoteStore) Open(identity sources.Identity) sources.NoteStore {
	return &userNotes{dao: s.notes, userID: identity.UserID}
}

type userNotes struct {
	dao    *dao.NoteDAO
	userID string
}

func (u *userNotes) List(ctx context.Context) ([]models.Note, error) {
	defer logging.LogDuration(ctx, "psql_notes_list")()
	if u.userID == "" {
		return []models.Note{}, nil
	}
	notes, err := u.dao.GetAllNotesByUser(ctx, u.userID)
	if err != nil {
		return nil, apperrors.Store("psql.List", err)
	}
	return notes, nil
}

func (u *userNotes) GetByID(ctx context.Context, id string) (*models.Note, error) {
	note, err := u.dao.GetNoteByID(ctx, u.userID, id)
	if err != nil {
		return nil, apperrors.Store("psql.GetByID", err)
	}
	if note == nil {
		return nil, apperrors.NotFound("psql.GetByID", "note not found")
	}
	return note, nil
}

func (u *userNotes) Create(ctx context.Context, title, content string) (*models.Note, error) {
	if u.userID == "" {
		return nil, apperrors.Auth("psql.Create", "User not authenticated")
	}
	note := &models.Note{UserID: u.userID, Title: title, Content: content}
	if err := u.dao.CreateNote(ctx, note); err != nil {
		return nil, apperrors.Store("psql.Create", err)
	}
	return note, nil
}

func (u *userNotes) Update(ctx context.Context, id string, fields models.NoteUpdate) (*models.Note, error) {
	if !fields.Empty() {
		n, err := u.dao.UpdateNote(ctx, u.userID, id, fields.Columns())
		if err != nil {
			return nil, apperrors.Store("psql.Update", err)
		}
		if n == 0 {
			return nil, apperrors.NotFound("psql.Update", "note not found")
		}
	}
	return u.GetByID(ctx, id)
}

func (u *userNotes) Delete(ctx context.Context, id string) error {
	n, err := u.dao.DeleteNote(ctx, u.userID, id)
	if err != nil {
		return apperrors.Store("psql.Delete", err)
	}
	if n == 0 {
		return apperrors.NotFound("psql.Delete", "note not found")
	}
	return nil
}
