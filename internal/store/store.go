// Package store keeps client-side collections of server entities in sync with
// the API. Each store exclusively owns its collection; callers read
// snapshots and mutate only through store operations.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"redops/internal/domain"
	redopssdk "redops/sdk/go"
)

// State is an immutable snapshot of a store.
type State[T domain.Entity] struct {
	Items   []T
	Current *T
	Loading bool
	Err     string
}

// Gateway is the remote CRUD surface a store reconciles against.
type Gateway[T domain.Entity, D, P any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) error
}

type options struct {
	logger     *slog.Logger
	staleGuard bool
}

type Option func(*options)

// WithLogger sets the logger used for dropped responses.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStaleGuard discards fetch responses older than the most recently
// dispatched fetch. Without it the last response to resolve wins.
func WithStaleGuard() Option {
	return func(o *options) { o.staleGuard = true }
}

// Store is a generic entity cache with fetch, create, update and delete.
// No lock is held across a network call; reconciliation is serialized.
type Store[T domain.Entity, D, P any] struct {
	name string
	gw   Gateway[T, D, P]
	opts options

	mu       sync.Mutex
	items    []T
	current  *T
	inflight int
	err      string
	fetchGen uint64
	subs     map[int]func(State[T])
	nextSub  int
}

func New[T domain.Entity, D, P any](name string, gw Gateway[T, D, P], opts ...Option) *Store[T, D, P] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T, D, P]{
		name: name,
		gw:   gw,
		opts: o,
		subs: map[int]func(State[T]){},
	}
}

// State returns a snapshot safe to retain.
func (s *Store[T, D, P]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store[T, D, P]) snapshot() State[T] {
	st := State[T]{
		Items:   append([]T(nil), s.items...),
		Loading: s.inflight > 0,
		Err:     s.err,
	}
	if s.current != nil {
		c := *s.current
		st.Current = &c
	}
	return st
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned func unregisters it.
func (s *Store[T, D, P]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// commit applies fn under the lock and then notifies subscribers outside it.
func (s *Store[T, D, P]) commit(fn func()) {
	s.mu.Lock()
	fn()
	st := s.snapshot()
	subs := make([]func(State[T]), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub(st)
	}
}

// begin marks a call in flight. Fetches also take a new generation.
func (s *Store[T, D, P]) begin(fetch bool) uint64 {
	var gen uint64
	s.commit(func() {
		s.inflight++
		s.err = ""
		if fetch {
			s.fetchGen++
			gen = s.fetchGen
		}
	})
	return gen
}

// fail records err and finishes the call.
func (s *Store[T, D, P]) fail(op string, err error) error {
	s.commit(func() {
		s.inflight--
		s.err = err.Error()
	})
	return fmt.Errorf("%s %s: %w", op, s.name, err)
}

// FetchAll replaces the collection with the server's list.
func (s *Store[T, D, P]) FetchAll(ctx context.Context) error {
	return s.FetchBy(ctx, "all", s.gw.List)
}

// FetchBy replaces the collection with a filtered list. A later filtered
// fetch fully replaces an earlier one.
func (s *Store[T, D, P]) FetchBy(ctx context.Context, criteria string, fetch func(context.Context) ([]T, error)) error {
	gen := s.begin(true)
	items, err := fetch(ctx)
	if err != nil {
		return s.fail("fetch", err)
	}
	s.commit(func() {
		s.inflight--
		if s.opts.staleGuard && gen != s.fetchGen {
			s.opts.logger.Debug("discarding stale fetch", "store", s.name, "criteria", criteria, "generation", gen, "latest", s.fetchGen)
			return
		}
		if items == nil {
			items = []T{}
		}
		s.items = items
	})
	return nil
}

// Create appends the server's entity to the end of the collection. If a
// concurrent fetch already brought the id in, that entry is replaced instead.
func (s *Store[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	s.begin(false)
	if v, ok := any(draft).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			var zero T
			return zero, s.fail("create", err)
		}
	}
	item, err := s.gw.Create(ctx, draft)
	if err != nil {
		return item, s.fail("create", err)
	}
	s.commit(func() {
		s.inflight--
		if s.indexOf(item.EntityID()) >= 0 {
			s.replace(item)
			return
		}
		s.items = append(s.items, item)
	})
	return item, nil
}

// Update sends patch and replaces the matching item in place.
func (s *Store[T, D, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	if v, ok := any(patch).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			s.begin(false)
			var zero T
			return zero, s.fail("update", err)
		}
	}
	return s.Mutate(ctx, id, func(ctx context.Context) (T, error) {
		return s.gw.Update(ctx, id, patch)
	})
}

// Mutate runs a single-entity call and reconciles its result like Update.
// A response for an id no longer in the collection is dropped.
func (s *Store[T, D, P]) Mutate(ctx context.Context, id string, call func(context.Context) (T, error)) (T, error) {
	s.begin(false)
	item, err := call(ctx)
	if err != nil {
		return item, s.fail("update", err)
	}
	s.commit(func() {
		s.inflight--
		s.replace(item)
	})
	return item, nil
}

func (s *Store[T, D, P]) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].EntityID() == id {
			return i
		}
	}
	return -1
}

func (s *Store[T, D, P]) replace(item T) {
	id := item.EntityID()
	if s.current != nil && (*s.current).EntityID() == id {
		c := item
		s.current = &c
	}
	for i := range s.items {
		if s.items[i].EntityID() == id {
			s.items[i] = item
			return
		}
	}
	s.opts.logger.Warn("update response for unknown item dropped", "store", s.name, "id", id)
}

// Delete removes id from the collection. A 404 counts as confirmation that
// the item is gone, so repeated deletes succeed.
func (s *Store[T, D, P]) Delete(ctx context.Context, id string) error {
	s.begin(false)
	if err := s.gw.Delete(ctx, id); err != nil && !isNotFound(err) {
		return s.fail("delete", err)
	}
	s.commit(func() {
		s.inflight--
		s.remove(id)
	})
	return nil
}

func (s *Store[T, D, P]) remove(id string) {
	if s.current != nil && (*s.current).EntityID() == id {
		s.current = nil
	}
	kept := s.items[:0]
	for _, it := range s.items {
		if it.EntityID() != id {
			kept = append(kept, it)
		}
	}
	var zero T
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = zero
	}
	s.items = kept
}

// Select marks the item with id as current. It reports whether it was found.
func (s *Store[T, D, P]) Select(id string) bool {
	found := false
	s.commit(func() {
		s.current = nil
		for _, it := range s.items {
			if it.EntityID() == id {
				c := it
				s.current = &c
				found = true
				return
			}
		}
	})
	return found
}

// ClearError resets the recorded error.
func (s *Store[T, D, P]) ClearError() {
	s.commit(func() { s.err = "" })
}

// Find returns the item with id from the current snapshot.
func (s *Store[T, D, P]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func isNotFound(err error) bool {
	var apiErr *redopssdk.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
