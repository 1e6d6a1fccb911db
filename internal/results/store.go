package results

import (
	"errors"
	"sync"
)

// ErrDuplicateKey is returned by Register when the key already has a slot.
var ErrDuplicateKey = errors.New("results: key already registered")

// Store maps keys to futures. A slot is created by Register and destroyed by
// the single Take that consumes it.
type Store[K comparable, T any] struct {
	mu    sync.Mutex
	slots map[K]*Future[T]
}

// NewStore creates an empty store.
func NewStore[K comparable, T any]() *Store[K, T] {
	return &Store[K, T]{slots: make(map[K]*Future[T])}
}

// Register creates an unresolved slot for key.
func (s *Store[K, T]) Register(key K) (*Future[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[key]; ok {
		return nil, ErrDuplicateKey
	}
	f := NewFuture[T]()
	s.slots[key] = f
	return f, nil
}

// Lookup returns the slot for key, resolved or not.
func (s *Store[K, T]) Lookup(key K) (*Future[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.slots[key]
	return f, ok
}

// Take removes f from the store if it is still the slot registered for key
// and has been resolved. Of several concurrent callers at most one succeeds.
func (s *Store[K, T]) Take(key K, f *Future[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.slots[key]
	if !ok || cur != f {
		return false
	}
	if _, resolved := f.TryGet(); !resolved {
		return false
	}
	delete(s.slots, key)
	return true
}

// Discard drops the slot for key whatever its state.
func (s *Store[K, T]) Discard(key K) {
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()
}

// Len returns the number of slots not yet taken.
func (s *Store[K, T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
