// Package cache provides an in-memory TTL store for lookup results.
//
// Entries carry their creation and expiration time; a read past expiration is
// a miss. The store is bounded by a cleanup threshold: when it grows past the
// threshold, expired entries are swept, and if that does not bring the size
// back under the threshold the store is purged. Negative results (a nil value)
// are cached like any other so repeated misses do not reach the backing store.
//
// All stores are safe for concurrent use.
package cache
