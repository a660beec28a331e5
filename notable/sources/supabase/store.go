package supabase

import (
	"context"
	"time"

	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

// NoteStore opens per-identity PostgREST clients over the notes table.
type NoteStore struct {
	cfg Config
}

func NewNoteStore(cfg Config) *NoteStore {
	return &NoteStore{cfg: cfg}
}

func (s *NoteStore) Open(identity sources.Identity) sources.NoteStore {
	return &userNotes{cfg: s.cfg, identity: identity}
}

type userNotes struct {
	cfg      Config
	identity sources.Identity
}

func (u *userNotes) client(op string) (*supa.Client, error) {
	c, err := newClient(u.cfg, u.identity.AccessToken)
	if err != nil {
		return nil, apperrors.Store(op, err)
	}
	return c, nil
}

func (u *userNotes) List(ctx context.Context) ([]models.Note, error) {
	defer logging.LogDuration(ctx, "supabase_notes_list")()
	c, err := u.client("supabase.List")
	if err != nil {
		return nil, err
	}
	notes := []models.Note{}
	_, err = c.From(notesTable).
		Select("*", "", false).
		Eq("user_id", u.identity.UserID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&notes)
	if err != nil {
		return nil, classify("supabase.List", err)
	}
	return notes, nil
}

func (u *userNotes) GetByID(ctx context.Context, id string) (*models.Note, error) {
	defer logging.LogDuration(ctx, "supabase_notes_get")()
	c, err := u.client("supabase.GetByID")
	if err != nil {
		return nil, err
	}
	var rows []models.Note
	_, err = c.From(notesTable).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", u.identity.UserID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("supabase.GetByID", err)
	}
	return single("supabase.GetByID", rows)
}

func (u *userNotes) Create(ctx context.Context, title, content string) (*models.Note, error) {
	defer logging.LogDuration(ctx, "supabase_notes_create")()
	if !u.identity.Authenticated() {
		return nil, apperrors.Auth("supabase.Create", "User not authenticated")
	}
	c, err := u.client("supabase.Create")
	if err != nil {
		return nil, err
	}
	row := map[string]interface{}{
		"title":   title,
		"content": content,
		"user_id": u.identity.UserID,
	}
	var rows []models.Note
	_, err = c.From(notesTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("supabase.Create", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.Store("supabase.Create", errEmptyInsert)
	}
	return &rows[0], nil
}

func (u *userNotes) Update(ctx context.Context, id string, fields models.NoteUpdate) (*models.Note, error) {
	defer logging.LogDuration(ctx, "supabase_notes_update")()
	c, err := u.client("supabase.Update")
	if err != nil {
		return nil, err
	}
	updates := fields.Columns()
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	var rows []models.Note
	_, err = c.From(notesTable).
		Update(updates, "representation", "").
		Eq("id", id).
		Eq("user_id", u.identity.UserID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("supabase.Update", err)
	}
	return single("supabase.Update", rows)
}

func (u *userNotes) Delete(ctx context.Context, id string) error {
	defer logging.LogDuration(ctx, "supabase_notes_delete")()
	c, err := u.client("supabase.Delete")
	if err != nil {
		return err
	}
	var rows []models.Note
	_, err = c.From(notesTable).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", u.identity.UserID).
		ExecuteTo(&rows)
	if err != nil {
		return classify("supabase.Delete", err)
	}
	if len(rows) == 0 {
		return apperrors.NotFound("supabase.Delete", "note not found")
	}
	return nil
}

// single enforces that a filtered query matched exactly one row.
func single(op string, rows []models.Note) (*models.Note, error) {
	switch len(rows) {
	case 0:
		return nil, apperrors.NotFound(op, "note not found")
	case 1:
		return &rows[0], nil
	default:
		return nil, apperrors.Store(op, errMultipleRows)
	}
}
