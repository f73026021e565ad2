package state

import (
	"context"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/logging"
)

// Persister writes the persisted subset of the state to storage.
type Persister interface {
	Save(Persisted) error
}

// Listener receives a snapshot after every update. Listeners run
// synchronously in update order and must not block or call Update.
type Listener func(ClientState)

// Store owns the ClientState. All access is serialized; every Update is
// applied as one replace so observers never see a partial transition.
type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	state    ClientState

	listeners map[int]Listener
	nextID    int

	persister Persister
	log       zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister saves the persisted subset whenever it changes.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// NewStore creates a store seeded with initial.
func NewStore(initial ClientState, opts ...Option) *Store {
	s := &Store{
		state:     initial.Clone(),
		listeners: make(map[int]Listener),
		log:       logging.Component("state"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to a copy of the state and installs the result. fn must
// not call back into the store. Listeners are notified and the persisted
// subset saved before Update returns.
func (s *Store) Update(fn func(*ClientState)) ClientState {
	s.mu.Lock()
	prev := s.state
	next := prev.Clone()
	fn(&next)
	s.state = next

	// Taking notifyMu before releasing mu keeps notifications in update order.
	s.notifyMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	if s.persister != nil {
		before, after := prev.Persisted(), next.Persisted()
		if !reflect.DeepEqual(before, after) {
			if err := s.persister.Save(after); err != nil {
				s.log.Error().Err(err).Msg("failed to persist client state")
			}
		}
	}

	for _, l := range listeners {
		l(next.Clone())
	}

	return next.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Watch returns a channel that always holds the most recent snapshot not yet
// received. Intermediate snapshots are dropped when the reader falls behind.
// The subscription ends when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) <-chan ClientState {
	ch := make(chan ClientState, 1)
	unsubscribe := s.Subscribe(func(st ClientState) {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	})
	context.AfterFunc(ctx, unsubscribe)
	return ch
}
