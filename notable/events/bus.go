// Package events carries note change notifications from the Note Service to
// caches and live views. Publication is explicit and never blocks.
package events

import (
	"sync"

	"notable/notable/utils/logging"

	"go.uber.org/zap"
)

type Kind string

const (
	CollectionChanged Kind = "collection_changed"
	NoteChanged       Kind = "note_changed"
)

// Event names the user whose data changed and, for NoteChanged, the note.
type Event struct {
	Kind   Kind   `json:"kind"`
	UserID string `json:"user_id"`
	NoteID string `json:"note_id,omitempty"`
}

// Subscription receives the events of one user, or of every user when it
// was created with an empty user id.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	userID string
	bus    *Bus
	once   sync.Once
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.remove(s) })
}

type Bus struct {
	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	listeners map[int]func(Event)
	nextID    int
	buffer    int
	dropped   uint64
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{
		subs:      make(map[*Subscription]struct{}),
		listeners: make(map[int]func(Event)),
		buffer:    buffer,
	}
}

// Listen registers fn to run synchronously inside Publish, before Publish
// returns. fn must be fast and must not publish. Caches use it so that a
// read following a mutation never sees stale data.
func (b *Bus) Listen(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Subscribe(userID string) *Subscription {
	ch := make(chan Event, b.buffer)
	s := &Subscription{C: ch, ch: ch, userID: userID, bus: b}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Publish runs the listeners, then delivers e to every matching subscriber
// whose buffer has room. Full subscribers miss the event.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, fn := range b.listeners {
		fn(e)
	}
	for s := range b.subs {
		if s.userID != "" && s.userID != e.UserID {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped++
			logging.AppLogger.Debug("event dropped",
				zap.String("kind", string(e.Kind)), zap.String("user_id", e.UserID))
		}
	}
}

// Dropped counts events that found a full subscriber buffer.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
