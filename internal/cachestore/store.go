// Package cachestore implements a bounded, time-aware store for annotation
// results.
//
// Entries are kept in insertion order. When room is needed, expired entries
// are evicted first and then the oldest remaining entries. Expiry is checked
// lazily on read; Purge can be called to drop expired entries eagerly.
//
// A Store is not safe for concurrent use. Callers must serialize access.
package cachestore

import (
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ErrInvalidCapacity is returned when a capacity is not positive.
var ErrInvalidCapacity = errors.New("cachestore: capacity must be positive")

// Stats is a point-in-time view of the store contents.
type Stats struct {
	Total   int
	Valid   int
	Expired int
}

type entry struct {
	value      string
	createdAt  time.Time
	lastUsedAt time.Time
}

// Store is a capacity- and TTL-bounded key/value store.
type Store struct {
	entries *simplelru.LRU[string, *entry]
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the entry lifetime. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = max(ttl, 0)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store holding at most maxSize entries.
func New(maxSize int, opts ...Option) (*Store, error) {
	if maxSize <= 0 {
		return nil, ErrInvalidCapacity
	}

	entries, err := simplelru.NewLRU[string, *entry](maxSize, nil)
	if err != nil {
		return nil, err
	}

	s := &Store{
		entries: entries,
		maxSize: maxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the value stored under key if it is present and not expired.
// An expired entry is removed.
func (s *Store) Get(key string) (string, bool) {
	e, ok := s.entries.Peek(key)
	if !ok {
		return "", false
	}

	now := s.now()
	if s.expired(e, now) {
		s.entries.Remove(key)
		return "", false
	}

	e.lastUsedAt = now
	return e.value, true
}

// LastUsed reports when key was last created or served.
func (s *Store) LastUsed(key string) (time.Time, bool) {
	e, ok := s.entries.Peek(key)
	if !ok {
		return time.Time{}, false
	}
	return e.lastUsedAt, true
}

// Put inserts or replaces the value under key and returns the number of
// entries evicted to make room.
func (s *Store) Put(key, value string) int {
	now := s.now()
	e := &entry{value: value, createdAt: now, lastUsedAt: now}

	if s.entries.Contains(key) {
		// Replacing moves the key to the newest position.
		s.entries.Add(key, e)
		return 0
	}

	evicted := s.shrinkTo(s.maxSize - 1)
	s.entries.Add(key, e)
	return evicted
}

// Clear removes all entries and returns how many were removed.
func (s *Store) Clear() int {
	n := s.entries.Len()
	s.entries.Purge()
	return n
}

// SetCapacity changes the maximum number of entries, evicting as needed, and
// returns the number of evicted entries.
func (s *Store) SetCapacity(maxSize int) (int, error) {
	if maxSize <= 0 {
		return 0, ErrInvalidCapacity
	}

	evicted := s.shrinkTo(maxSize)
	evicted += s.entries.Resize(maxSize)
	s.maxSize = maxSize
	return evicted, nil
}

// SetTTL changes the lifetime used by subsequent expiry checks.
// Zero or negative disables expiry. Nothing is purged here.
func (s *Store) SetTTL(ttl time.Duration) {
	s.ttl = max(ttl, 0)
}

// Purge removes every expired entry and returns how many were removed.
func (s *Store) Purge() int {
	if s.ttl == 0 {
		return 0
	}

	now := s.now()
	var removed int
	for _, key := range s.entries.Keys() {
		if e, ok := s.entries.Peek(key); ok && s.expired(e, now) {
			s.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Stats scans the store and classifies every entry against the current time.
func (s *Store) Stats() Stats {
	now := s.now()
	st := Stats{Total: s.entries.Len()}
	for _, e := range s.entries.Values() {
		if s.expired(e, now) {
			st.Expired++
		}
	}
	st.Valid = st.Total - st.Expired
	return st
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Capacity returns the maximum number of entries.
func (s *Store) Capacity() int {
	return s.maxSize
}

// TTL returns the entry lifetime, zero when expiry is disabled.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.createdAt) > s.ttl
}

// shrinkTo evicts entries until at most limit remain: expired entries first,
// oldest first, then the oldest valid entries.
func (s *Store) shrinkTo(limit int) int {
	if s.entries.Len() <= limit {
		return 0
	}

	var evicted int
	if s.ttl > 0 {
		now := s.now()
		for _, key := range s.entries.Keys() {
			if s.entries.Len() <= limit {
				break
			}
			if e, ok := s.entries.Peek(key); ok && s.expired(e, now) {
				s.entries.Remove(key)
				evicted++
			}
		}
	}

	for s.entries.Len() > limit {
		if _, _, ok := s.entries.RemoveOldest(); !ok {
			break
		}
		evicted++
	}
	return evicted
}
