package cache

import "time"

// Entry is a single cached value with TTL metadata.
type Entry[V any] struct {
	Key       string
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewEntry creates an entry created at now that expires after ttl.
func NewEntry[V any](key string, value V, now time.Time, ttl time.Duration) *Entry[V] {
	return &Entry[V]{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpiredAt reports whether the entry has expired at t.
func (e *Entry[V]) IsExpiredAt(t time.Time) bool {
	return t.After(e.ExpiresAt)
}
