// Package store holds the ordered element collection of a form under
// construction. A Store is an explicit container: callers construct it with
// the persistence hook they want and pass it to whatever drives mutations
// (HTTP handlers, the CLI, a terminal session).
//
// Every mutation replaces the collection with a new slice, persists the new
// state through the configured Persister and notifies subscribers. Persistence
// is best effort: failures are logged and the in-memory state stays
// authoritative.
package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/reorder"
	"github.com/goliatone/go-formbuilder/pkg/storage"
)

// ErrIndexOutOfRange is returned by Reorder when an index does not address
// the non-submit subsequence.
var ErrIndexOutOfRange = reorder.ErrIndexOutOfRange

// Listener receives the collection after each mutation. The slice is a copy
// owned by the listener.
type Listener func(elements []model.Element)

// Option configures a Store.
type Option func(*Store)

// WithPersister sets the persistence hook. Without one the store keeps state
// in memory only.
func WithPersister(p storage.Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithStorageKey overrides the key state is persisted under.
func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithIDGenerator replaces the id source used for new elements.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is safe for concurrent use. Mutations are serialised; the last one
// wins.
type Store struct {
	mu       sync.RWMutex
	elements []model.Element

	persister storage.Persister
	key       string
	newID     func() string
	logger    *slog.Logger

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// New builds a store and hydrates it from the persister. Missing state yields
// the initial collection; malformed state is logged and replaced by the
// initial collection.
func New(ctx context.Context, opts ...Option) *Store {
	s := &Store{
		elements:  model.Initial(),
		key:       storage.DefaultKey,
		newID:     uuid.NewString,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.Hydrate(ctx); err != nil {
		s.logger.Warn("store hydration failed, starting from initial state",
			slog.String("key", s.key),
			slog.Any("error", err))
	}
	return s
}

// Hydrate replaces the in-memory collection with the persisted one. When
// nothing is stored the collection is left at its initial state and nil is
// returned. Any other failure resets the collection and is returned.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.elements = model.Initial()
		return err
	}
	elements, err := storage.DecodeState(data)
	if err != nil {
		s.elements = model.Initial()
		return err
	}
	s.elements = elements
	s.logger.Debug("store hydrated", slog.String("key", s.key), slog.Int("elements", len(elements)))
	return nil
}

// Elements returns a copy of the collection in order. The submit element is
// always last.
func (s *Store) Elements() []model.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneAll(s.elements)
}

// Find returns the element with the given id.
func (s *Store) Find(id string) (model.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, el := range s.elements {
		if el.ID == id {
			return el.Clone(), true
		}
	}
	return model.Element{}, false
}

// Len returns the number of elements, submit included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// CanExport reports whether the collection holds anything besides the submit
// element.
func (s *Store) CanExport() bool {
	return s.Len() > 1
}

// Add appends a new element of type t just before the submit element and
// returns it. Only addable types are accepted.
func (s *Store) Add(ctx context.Context, t model.Type) (model.Element, error) {
	el, err := model.Defaults(t)
	if err != nil {
		return model.Element{}, err
	}

	var added model.Element
	s.mutate(ctx, "add", func(current []model.Element) ([]model.Element, bool) {
		el.ID = s.newID()
		el.Label = model.NextLabel(current, t)

		fields := model.Fields(current)
		submit, ok := model.Submit(current)
		if !ok {
			submit = model.NewSubmit()
		}
		next := make([]model.Element, 0, len(fields)+2)
		next = append(next, fields...)
		next = append(next, el, submit)

		added = el.Clone()
		return next, true
	})
	return added, nil
}

// AddFromPayload adds an element for a drop payload. Unrecognised payloads
// are ignored and reported with ok=false.
func (s *Store) AddFromPayload(ctx context.Context, payload string) (model.Element, bool) {
	t, ok := model.ParseType(payload)
	if !ok {
		s.logger.Debug("ignoring unrecognised drop payload", slog.String("payload", payload))
		return model.Element{}, false
	}
	el, err := s.Add(ctx, t)
	if err != nil {
		return model.Element{}, false
	}
	return el, true
}

// Update merges patch into the element with the given id. The element type
// and id never change. It reports false when no element matches.
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) bool {
	return s.replace(ctx, "update", id, func(el model.Element) (model.Element, bool) {
		if patch.Empty() {
			return el, false
		}
		return el.Apply(patch), true
	})
}

// Remove deletes the element with the given id. The submit element is never
// removed. It reports whether an element was deleted.
func (s *Store) Remove(ctx context.Context, id string) bool {
	if id == model.SubmitID {
		s.logger.Debug("refusing to remove submit element")
		return false
	}
	removed := false
	s.mutate(ctx, "remove", func(current []model.Element) ([]model.Element, bool) {
		next := make([]model.Element, 0, len(current))
		for _, el := range current {
			if el.ID == id && !el.IsSubmit() {
				removed = true
				continue
			}
			next = append(next, el)
		}
		return next, removed
	})
	return removed
}

// Reorder moves the non-submit element at oldIndex to newIndex. Indices
// address the collection with the submit element excluded. Out-of-range
// indices are rejected with ErrIndexOutOfRange and leave state untouched.
func (s *Store) Reorder(ctx context.Context, oldIndex, newIndex int) error {
	var moveErr error
	s.mutate(ctx, "reorder", func(current []model.Element) ([]model.Element, bool) {
		next, err := reorder.MoveUnpinned(current, model.Element.IsSubmit, oldIndex, newIndex)
		if err != nil {
			moveErr = err
			return nil, false
		}
		return next, oldIndex != newIndex
	})
	return moveErr
}

// ReorderByID moves the element activeID into the slot currently held by
// overID, the way a drag ending over another element does. Unknown ids,
// identical ids and the submit id are ignored and reported with false.
func (s *Store) ReorderByID(ctx context.Context, activeID, overID string) bool {
	if activeID == overID {
		return false
	}
	moved := false
	s.mutate(ctx, "reorder", func(current []model.Element) ([]model.Element, bool) {
		from := model.IndexOf(current, activeID)
		to := model.IndexOf(current, overID)
		if from < 0 || to < 0 {
			return nil, false
		}
		next, err := reorder.MoveUnpinned(current, model.Element.IsSubmit, from, to)
		if err != nil {
			return nil, false
		}
		moved = true
		return next, true
	})
	return moved
}

// Reset restores the initial collection: a lone submit element.
func (s *Store) Reset(ctx context.Context) {
	s.mutate(ctx, "reset", func([]model.Element) ([]model.Element, bool) {
		return model.Initial(), true
	})
}

// Replace swaps the whole collection, e.g. after an import. The collection
// must satisfy model.ValidateCollection; otherwise state is left untouched.
func (s *Store) Replace(ctx context.Context, elements []model.Element) error {
	if err := model.ValidateCollection(elements); err != nil {
		return err
	}
	next := model.CloneAll(elements)
	s.mutate(ctx, "replace", func([]model.Element) ([]model.Element, bool) {
		return next, true
	})
	return nil
}

// AddOption appends a numbered option to a select or radio element.
func (s *Store) AddOption(ctx context.Context, id string) bool {
	return s.replace(ctx, "add_option", id, model.Element.WithOptionAdded)
}

// SetOption replaces the option at index.
func (s *Store) SetOption(ctx context.Context, id string, index int, value string) bool {
	return s.replace(ctx, "set_option", id, func(el model.Element) (model.Element, bool) {
		return el.WithOption(index, value)
	})
}

// RemoveOption deletes the option at index, keeping at least one option.
func (s *Store) RemoveOption(ctx context.Context, id string, index int) bool {
	return s.replace(ctx, "remove_option", id, func(el model.Element) (model.Element, bool) {
		return el.WithoutOption(index)
	})
}

// Subscribe registers fn to be called after each mutation and returns a
// function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.listenerMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

func (s *Store) replace(ctx context.Context, op, id string, fn func(model.Element) (model.Element, bool)) bool {
	changed := false
	s.mutate(ctx, op, func(current []model.Element) ([]model.Element, bool) {
		idx := -1
		for i, el := range current {
			if el.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		updated, ok := fn(current[idx])
		if !ok {
			return nil, false
		}
		next := make([]model.Element, len(current))
		copy(next, current)
		next[idx] = updated
		changed = true
		return next, true
	})
	return changed
}

// mutate runs fn against the current collection under the write lock. When
// fn reports a change the returned slice becomes the new state, is persisted
// and is handed to subscribers once the lock is released.
func (s *Store) mutate(ctx context.Context, op string, fn func([]model.Element) ([]model.Element, bool)) {
	s.mu.Lock()
	next, changed := fn(s.elements)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.elements = next
	s.persist(ctx)
	snapshot := model.CloneAll(next)
	s.mu.Unlock()

	s.logger.Debug("store mutated", slog.String("op", op), slog.Int("elements", len(snapshot)))
	s.notify(snapshot)
}

func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	data, err := storage.EncodeState(s.elements)
	if err == nil {
		err = s.persister.Save(ctx, s.key, data)
	}
	if err != nil {
		s.logger.Warn("store persistence failed",
			slog.String("key", s.key),
			slog.Any("error", err))
	}
}

func (s *Store) notify(snapshot []model.Element) {
	s.listenerMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(model.CloneAll(snapshot))
	}
}
