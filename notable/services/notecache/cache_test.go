package notecache

import (
	"context"
	"sync"
	"testing"
	"time"

	"notable/notable/events"
	"notable/notable/sources"
	"notable/notable/sources/memory"
	"notable/notable/sources/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingOpener counts List calls that reach the backing store.
type countingOpener struct {
	inner sources.Opener
	lists int
}

func (o *countingOpener) Open(id sources.Identity) sources.NoteStore {
	return &countingStore{NoteStore: o.inner.Open(id), o: o}
}

type countingStore struct {
	sources.NoteStore
	o *countingOpener
}

func (s *countingStore) List(ctx context.Context) ([]models.Note, error) {
	s.o.lists++
	return s.NoteStore.List(ctx)
}

var ann = sources.Identity{UserID: "ann"}

func TestSecondListServedFromCache(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	_, err := mem.Open(ann).Create(ctx, "A", "a")
	require.NoError(t, err)

	backing := &countingOpener{inner: mem}
	bus := events.NewBus(1)
	c := New(backing, bus, time.Minute)

	first, err := c.Open(ann).List(ctx)
	require.NoError(t, err)
	second, err := c.Open(ann).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.lists)

	// a write by another path is only seen after its event is published
	_, err = mem.Open(ann).Create(ctx, "B", "b")
	require.NoError(t, err)
	stale, _ := c.Open(ann).List(ctx)
	assert.Len(t, stale, 1)

	bus.Publish(events.Event{Kind: events.CollectionChanged, UserID: "ann"})
	fresh, err := c.Open(ann).List(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, 2, backing.lists)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestWritesThroughCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := New(memory.NewStore(), nil, time.Minute)
	s := c.Open(ann)

	n, err := s.Create(ctx, "A", "a")
	require.NoError(t, err)
	got, _ := s.GetByID(ctx, n.ID)
	assert.Nil(t, got.Summary)

	_, err = s.Update(ctx, n.ID, models.NoteUpdate{Summary: models.StringPtr("sum")})
	require.NoError(t, err)
	got, err = s.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "sum", got.SummaryText())
}

func TestNoteChangedDropsOnlyThatNote(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	bus := events.NewBus(1)
	c := New(mem, bus, time.Minute)
	a, _ := mem.Open(ann).Create(ctx, "A", "a")
	b, _ := mem.Open(ann).Create(ctx, "B", "b")
	_, _ = c.Open(ann).GetByID(ctx, a.ID)
	_, _ = c.Open(ann).GetByID(ctx, b.ID)

	bus.Publish(events.Event{Kind: events.NoteChanged, UserID: "ann", NoteID: a.ID})
	_, _ = c.Open(ann).GetByID(ctx, b.ID)
	_, _ = c.Open(ann).GetByID(ctx, a.ID)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(3), misses)
}

func TestExpiredEntriesReload(t *testing.T) {
	ctx := context.Background()
	backing := &countingOpener{inner: memory.NewStore()}
	c := New(backing, nil, time.Second)
	now := time.Now()
	c.now = func() time.Time { return now }

	_, _ = c.Open(ann).List(ctx)
	now = now.Add(2 * time.Second)
	_, _ = c.Open(ann).List(ctx)
	assert.Equal(t, 2, backing.lists)
}

func TestAnonymousBypassesCache(t *testing.T) {
	backing := &countingOpener{inner: memory.NewStore()}
	c := New(backing, nil, time.Minute)
	_, _ = c.Open(sources.Identity{}).List(context.Background())
	_, _ = c.Open(sources.Identity{}).List(context.Background())
	assert.Equal(t, 2, backing.lists)
}

// gatedOpener stalls the first read after it has hit the backing store.
type gatedOpener struct {
	inner   sources.Opener
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newGatedOpener(inner sources.Opener) *gatedOpener {
	return &gatedOpener{inner: inner, read: make(chan struct{}), release: make(chan struct{})}
}

func (o *gatedOpener) Open(id sources.Identity) sources.NoteStore {
	return &gatedStore{NoteStore: o.inner.Open(id), o: o}
}

func (o *gatedOpener) hold() {
	o.once.Do(func() {
		close(o.read)
		<-o.release
	})
}

type gatedStore struct {
	sources.NoteStore
	o *gatedOpener
}

func (s *gatedStore) List(ctx context.Context) ([]models.Note, error) {
	notes, err := s.NoteStore.List(ctx)
	s.o.hold()
	return notes, err
}

func (s *gatedStore) GetByID(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.NoteStore.GetByID(ctx, id)
	s.o.hold()
	return n, err
}

func TestInFlightListDoesNotRefillAfterUpdate(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	n, err := mem.Open(ann).Create(ctx, "Old", "a")
	require.NoError(t, err)

	gate := newGatedOpener(mem)
	bus := events.NewBus(1)
	c := New(gate, bus, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Open(ann).List(ctx)
	}()
	<-gate.read

	_, err = c.Open(ann).Update(ctx, n.ID, models.NoteUpdate{Title: models.StringPtr("New")})
	require.NoError(t, err)
	bus.Publish(events.Event{Kind: events.NoteChanged, UserID: "ann", NoteID: n.ID})
	close(gate.release)
	<-done

	notes, err := c.Open(ann).List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "New", notes[0].Title)
}

func TestInFlightGetDoesNotRefillAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	n, err := mem.Open(ann).Create(ctx, "Old", "a")
	require.NoError(t, err)

	gate := newGatedOpener(mem)
	c := New(gate, nil, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Open(ann).GetByID(ctx, n.ID)
	}()
	<-gate.read

	_, err = mem.Open(ann).Update(ctx, n.ID, models.NoteUpdate{Title: models.StringPtr("New")})
	require.NoError(t, err)
	c.Invalidate("ann")
	close(gate.release)
	<-done

	got, err := c.Open(ann).GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
}
