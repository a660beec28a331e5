// Package notecache keeps recently read notes per user and drops them when a
// change event for that user is published.
package notecache

import (
	"context"
	"sync"
	"time"

	"notable/notable/events"
	"notable/notable/sources"
	"notable/notable/sources/models"
)

type entry struct {
	list   []models.Note
	listAt time.Time
	notes  map[string]cachedNote
}

type cachedNote struct {
	note models.Note
	at   time.Time
}

// Cache wraps an Opener. Stores it opens read through the cache and write
// through to the wrapped store.
type Cache struct {
	inner sources.Opener
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	users map[string]*entry
	// gen counts invalidations per user. A miss only fills the cache when no
	// invalidation happened while it read the store.
	gen    map[string]uint64
	hits   uint64
	misses uint64
}

func New(inner sources.Opener, bus *events.Bus, ttl time.Duration) *Cache {
	c := &Cache{inner: inner, ttl: ttl, now: time.Now, users: make(map[string]*entry), gen: make(map[string]uint64)}
	if bus != nil {
		bus.Listen(c.handle)
	}
	return c
}

func (c *Cache) handle(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[e.UserID]++
	ent, ok := c.users[e.UserID]
	if !ok {
		return
	}
	switch e.Kind {
	case events.NoteChanged:
		delete(ent.notes, e.NoteID)
		ent.list = nil
	default:
		delete(c.users, e.UserID)
	}
}

// Invalidate drops everything cached for userID.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[userID]++
	delete(c.users, userID)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) Open(identity sources.Identity) sources.NoteStore {
	inner := c.inner.Open(identity)
	if !identity.Authenticated() {
		return inner
	}
	return &store{cache: c, inner: inner, userID: identity.UserID}
}

func (c *Cache) fresh(at time.Time) bool {
	return c.ttl <= 0 || c.now().Sub(at) < c.ttl
}

func (c *Cache) entry(userID string) *entry {
	ent, ok := c.users[userID]
	if !ok {
		ent = &entry{notes: make(map[string]cachedNote)}
		c.users[userID] = ent
	}
	return ent
}

type store struct {
	cache  *Cache
	inner  sources.NoteStore
	userID string
}

func (s *store) List(ctx context.Context) ([]models.Note, error) {
	c := s.cache
	c.mu.Lock()
	if ent, ok := c.users[s.userID]; ok && ent.list != nil && c.fresh(ent.listAt) {
		c.hits++
		out := append([]models.Note(nil), ent.list...)
		c.mu.Unlock()
		return out, nil
	}
	c.misses++
	gen := c.gen[s.userID]
	c.mu.Unlock()

	notes, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.gen[s.userID] == gen {
		ent := c.entry(s.userID)
		ent.list = append([]models.Note{}, notes...)
		ent.listAt = c.now()
	}
	c.mu.Unlock()
	return notes, nil
}

func (s *store) GetByID(ctx context.Context, id string) (*models.Note, error) {
	c := s.cache
	c.mu.Lock()
	if ent, ok := c.users[s.userID]; ok {
		if cn, ok := ent.notes[id]; ok && c.fresh(cn.at) {
			c.hits++
			n := cn.note
			c.mu.Unlock()
			return &n, nil
		}
	}
	c.misses++
	gen := c.gen[s.userID]
	c.mu.Unlock()

	note, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.gen[s.userID] == gen {
		c.entry(s.userID).notes[id] = cachedNote{note: *note, at: c.now()}
	}
	c.mu.Unlock()
	return note, nil
}

func (s *store) Create(ctx context.Context, title, content string) (*models.Note, error) {
	defer s.cache.Invalidate(s.userID)
	return s.inner.Create(ctx, title, content)
}

func (s *store) Update(ctx context.Context, id string, fields models.NoteUpdate) (*models.Note, error) {
	defer s.cache.Invalidate(s.userID)
	return s.inner.Update(ctx, id, fields)
}

func (s *store) Delete(ctx context.Context, id string) error {
	defer s.cache.Invalidate(s.userID)
	return s.inner.Delete(ctx, id)
}
