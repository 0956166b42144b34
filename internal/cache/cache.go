package cache

import (
	"sync"
	"time"
)

// Freshness classifies a cache read.
type Freshness int

const (
	// Miss means no entry, or the entry aged past its stale TTL.
	Miss Freshness = iota
	// Fresh entries are served without any provider or DB call.
	Fresh
	// Stale entries are only eligible as a degraded-mode fallback when
	// the provider cannot be reached.
	Stale
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

type entry[T any] struct {
	val       T
	writtenAt time.Time
}

// Store is one cache tier: a TTL map with a fresh window and a longer
// stale-fallback window. Entries are evicted lazily on read, there is no
// sweeper goroutine. Writes are whole-value replacements, so concurrent
// readers never observe a partially updated entry.
type Store[T any] struct {
	mu       sync.Mutex
	freshTTL time.Duration
	staleTTL time.Duration
	items    map[string]entry[T]
	now      func() time.Time
}

// New builds a tier. staleTTL may equal freshTTL for tiers with no
// degraded mode; it must never be shorter.
func New[T any](freshTTL, staleTTL time.Duration) *Store[T] {
	if staleTTL < freshTTL {
		staleTTL = freshTTL
	}
	return &Store[T]{
		freshTTL: freshTTL,
		staleTTL: staleTTL,
		items:    make(map[string]entry[T]),
		now:      time.Now,
	}
}

// Get returns the cached value and how fresh it is. A Miss also covers
// entries that aged out of the stale window; those are deleted on the
// spot.
func (s *Store[T]) Get(key string) (T, Freshness) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		var zero T
		return zero, Miss
	}
	age := s.now().Sub(e.writtenAt)
	switch {
	case age <= s.freshTTL:
		return e.val, Fresh
	case age <= s.staleTTL:
		return e.val, Stale
	default:
		delete(s.items, key)
		var zero T
		return zero, Miss
	}
}

// Set overwrites the entry unconditionally with a new timestamp.
func (s *Store[T]) Set(key string, val T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry[T]{val: val, writtenAt: s.now()}
}

// Clear drops every entry. Used by the rule tier when a margin rule is
// edited upstream.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]entry[T])
}

// Len reports the number of retained entries, expired or not.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
