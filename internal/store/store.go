// Package store holds the canonical in-memory list of todos.
//
// Mutations are applied one at a time. Every successful mutation is delivered
// to all observers, in registration order, before the next mutation starts.
package store

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/form"
	"github.com/Makepad-fr/tada/internal/model"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("todo not found")

const (
	seedTitle       = "Testing Task."
	seedDescription = "This is a testing task!"
)

// Op names a store mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpToggle Op = "toggle"
	OpDelete Op = "delete"
)

// Event describes one applied mutation. Snapshot is the full list after it.
type Event struct {
	Seq      uint64       `json:"seq"`
	Op       Op           `json:"op"`
	Todo     model.Todo   `json:"todo"`
	Snapshot []model.Todo `json:"snapshot"`
}

// Observer is called synchronously after each successful mutation. It may
// read the store and unsubscribe observers, but must not mutate it.
type Observer func(Event)

// Subscription identifies a registered observer.
type Subscription uint64

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces uuid.New.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger used for not-found reports.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithoutSeed starts the store empty.
func WithoutSeed() Option {
	return func(s *Store) { s.seed = false }
}

// Store is the ordered collection of todos. The zero value is not usable;
// call New.
type Store struct {
	writeMu sync.Mutex // serializes mutation + notification

	mu      sync.RWMutex
	todos   []model.Todo
	subs    []subscriber
	nextSub Subscription
	seq     uint64

	now   func() time.Time
	newID func() uuid.UUID
	log   *log.Logger
	seed  bool
}

type subscriber struct {
	id Subscription
	fn Observer
}

// New returns a store holding the seed record unless WithoutSeed is given.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.New,
		log:   log.New(io.Discard),
		seed:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed {
		now := s.now()
		s.todos = append(s.todos, model.Todo{
			ID:          s.newID(),
			Title:       seedTitle,
			Description: seedDescription,
			DateCreated: now,
			DateUpdated: now,
		})
	}
	return s
}

// ListAll returns a copy of the todos in display order.
func (s *Store) ListAll() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Snapshot returns the list together with the sequence number of the last
// applied mutation. Events with Seq at or below it are already reflected.
func (s *Store) Snapshot() (uint64, []model.Todo) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq, s.snapshotLocked()
}

// Len returns the number of stored todos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

// Get returns the todo with the given id.
func (s *Store) Get(id uuid.UUID) (model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.todos[i], nil
}

// Create inserts a new todo at the front of the list.
func (s *Store) Create(title, description string) (model.Todo, error) {
	if err := form.ValidateTitle(title); err != nil {
		return model.Todo{}, err
	}
	return s.mutate(OpCreate, func() (model.Todo, error) {
		now := s.now()
		t := model.Todo{
			ID:          s.uniqueIDLocked(),
			Title:       title,
			Description: description,
			DateCreated: now,
			DateUpdated: now,
		}
		s.todos = append([]model.Todo{t}, s.todos...)
		return t, nil
	})
}

// Update replaces the title and description of an existing todo in place.
func (s *Store) Update(id uuid.UUID, title, description string) (model.Todo, error) {
	if err := form.ValidateTitle(title); err != nil {
		return model.Todo{}, err
	}
	return s.mutate(OpUpdate, func() (model.Todo, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return model.Todo{}, s.notFound(OpUpdate, id)
		}
		t := &s.todos[i]
		t.Title = title
		t.Description = description
		t.DateUpdated = s.stamp(t.DateUpdated)
		return *t, nil
	})
}

// ToggleComplete flips the completion flag.
func (s *Store) ToggleComplete(id uuid.UUID) (model.Todo, error) {
	return s.mutate(OpToggle, func() (model.Todo, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return model.Todo{}, s.notFound(OpToggle, id)
		}
		t := &s.todos[i]
		t.IsComplete = !t.IsComplete
		t.DateUpdated = s.stamp(t.DateUpdated)
		return *t, nil
	})
}

// Delete removes a todo, keeping the order of the rest.
func (s *Store) Delete(id uuid.UUID) error {
	_, err := s.mutate(OpDelete, func() (model.Todo, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return model.Todo{}, s.notFound(OpDelete, id)
		}
		t := s.todos[i]
		s.todos = append(s.todos[:i:i], s.todos[i+1:]...)
		return t, nil
	})
	return err
}

// Subscribe registers fn for change events.
func (s *Store) Subscribe(fn Observer) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: s.nextSub, fn: fn})
	return s.nextSub
}

// Unsubscribe removes a registration. Unknown handles are ignored.
func (s *Store) Unsubscribe(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.subs {
		if r.id == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// mutate applies fn under the write lock and notifies observers before
// releasing it.
func (s *Store) mutate(op Op, fn func() (model.Todo, error)) (model.Todo, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	t, err := fn()
	if err != nil {
		s.mu.Unlock()
		return model.Todo{}, err
	}
	s.seq++
	ev := Event{Seq: s.seq, Op: op, Todo: t, Snapshot: s.snapshotLocked()}
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		// an earlier observer may have unsubscribed this one
		if s.subscribed(sub.id) {
			sub.fn(ev)
		}
	}
	return t, nil
}

func (s *Store) subscribed(id Subscription) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.subs {
		if r.id == id {
			return true
		}
	}
	return false
}

func (s *Store) snapshotLocked() []model.Todo {
	out := make([]model.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueIDLocked() uuid.UUID {
	for {
		id := s.newID()
		if id != uuid.Nil && s.indexLocked(id) < 0 {
			return id
		}
	}
}

// stamp returns a timestamp strictly after prev.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func (s *Store) notFound(op Op, id uuid.UUID) error {
	s.log.Warn("todo not found", "op", op, "id", id)
	return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
}
