// Package memory is an in-process notes store and identity provider used for
// local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"notable/notable/sources"
	"notable/notable/sources/models"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/logging"

	"github.com/google/uuid"
)

// Store holds every user's notes. Open returns a view scoped to one user.
type Store struct {
	mu    sync.RWMutex
	notes map[string]models.Note
	last  time.Time
	now   func() time.Time

	// FailUpdates makes Update fail; tests use it to observe partial creates.
	FailUpdates error
}

func NewStore() *Store {
	return &Store{notes: make(map[string]models.Note), now: time.Now}
}

func (s *Store) Open(identity sources.Identity) sources.NoteStore {
	return &scoped{store: s, identity: identity}
}

// tick returns a strictly increasing timestamp so updated_at ordering is
// total even when the wall clock is coarse. Callers hold s.mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Len is the number of notes across all users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

type scoped struct {
	store    *Store
	identity sources.Identity
}

func (v *scoped) List(ctx context.Context) ([]models.Note, error) {
	defer logging.LogDuration(ctx, "memory_notes_list")()
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	notes := make([]models.Note, 0)
	for _, n := range v.store.notes {
		if n.UserID == v.identity.UserID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

func (v *scoped) GetByID(ctx context.Context, id string) (*models.Note, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	n, ok := v.owned(id)
	if !ok {
		return nil, apperrors.NotFound("memory.GetByID", "note not found")
	}
	return &n, nil
}

func (v *scoped) Create(ctx context.Context, title, content string) (*models.Note, error) {
	if !v.identity.Authenticated() {
		return nil, apperrors.Auth("memory.Create", "User not authenticated")
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	now := v.store.tick()
	n := models.Note{
		ID:        uuid.NewString(),
		UserID:    v.identity.UserID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.store.notes[n.ID] = n
	return &n, nil
}

func (v *scoped) Update(ctx context.Context, id string, fields models.NoteUpdate) (*models.Note, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if v.store.FailUpdates != nil {
		return nil, apperrors.Store("memory.Update", v.store.FailUpdates)
	}
	n, ok := v.owned(id)
	if !ok {
		return nil, apperrors.NotFound("memory.Update", "note not found")
	}
	fields.Apply(&n)
	n.UpdatedAt = v.store.tick()
	v.store.notes[id] = n
	return &n, nil
}

func (v *scoped) Delete(ctx context.Context, id string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if _, ok := v.owned(id); !ok {
		return apperrors.NotFound("memory.Delete", "note not found")
	}
	delete(v.store.notes, id)
	return nil
}

// owned looks a note up and hides notes of other users. Callers hold the lock.
func (v *scoped) owned(id string) (models.Note, bool) {
	n, ok := v.store.notes[id]
	if !ok || n.UserID != v.identity.UserID || v.identity.UserID == "" {
		return models.Note{}, false
	}
	return n, true
}
