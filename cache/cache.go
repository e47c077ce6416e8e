// Package cache provides the TTL-keyed byte-value cache substrate the
// re-ranker (C7) and graph traversal (C9) stages use for their query
// caches.
package cache

import "time"

// Cache is the minimal get/set-with-ttl contract both the in-memory and
// badger-backed implementations satisfy.
type Cache interface {
	// Get returns the stored value and true, or nil/false if absent or expired.
	Get(key string) ([]byte, bool)
	// Set stores value under key with the given time-to-live.
	Set(key string, value []byte, ttl time.Duration)
	// Len reports the number of live entries, for soft-cap eviction policies.
	Len() int
}
