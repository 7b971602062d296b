package cache

import (
	"sync"
	"time"
)

// MemoryStore is a concurrent in-memory TTL store.
type MemoryStore[V any] struct {
	ttl       time.Duration
	threshold int
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry[V]
}

// Option configures a MemoryStore.
type Option func(*options)

type options struct {
	threshold int
	now       func() time.Time
}

// WithCleanupThreshold sets the size above which expired entries are swept.
func WithCleanupThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemoryStore creates a store whose entries live for ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore[V any](ttl time.Duration, opts ...Option) *MemoryStore[V] {
	o := options{threshold: DefaultCleanupThreshold, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore[V]{
		ttl:       ttl,
		threshold: o.threshold,
		now:       o.now,
		entries:   make(map[string]*Entry[V]),
	}
}

// Get returns the live value for key. The boolean is false on a miss or an
// expired entry; a cached zero value is still a hit.
func (s *MemoryStore[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	var zero V
	if !ok || entry.IsExpiredAt(s.now()) {
		return zero, false
	}
	return entry.Value, true
}

// Set stores value under key and triggers a sweep when the store is over its threshold.
func (s *MemoryStore[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = NewEntry(key, value, now, s.ttl)
	if len(s.entries) > s.threshold {
		s.sweepLocked(now)
		if len(s.entries) > s.threshold {
			s.entries = make(map[string]*Entry[V])
		}
	}
}

func (s *MemoryStore[V]) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range s.entries {
		if e.IsExpiredAt(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
