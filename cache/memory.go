package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    []byte
	expireAt time.Time
	created  time.Time
}

// MemoryCache is a map-based Cache with lazy TTL expiry and an optional soft
// cap: once Len would exceed the cap, the oldest entries (by insertion time)
// are evicted before the new one is inserted.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	softCap int
	evictN  int
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithSoftCap sets a maximum entry count; inserting past it evicts evictN
// oldest entries first. A softCap of 0 disables capping.
func WithSoftCap(softCap, evictN int) MemoryOption {
	return func(c *MemoryCache) {
		c.softCap = softCap
		c.evictN = evictN
	}
}

// NewMemoryCache constructs an uncapped MemoryCache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{entries: make(map[string]entry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Cache.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expireAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set implements Cache, evicting the softCap's oldest evictN entries first
// if the cache is at capacity.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.softCap > 0 {
		if _, exists := c.entries[key]; !exists && len(c.entries) >= c.softCap {
			c.evictOldestLocked(c.evictN)
		}
	}

	c.entries[key] = entry{value: value, expireAt: time.Now().Add(ttl), created: time.Now()}
}

func (c *MemoryCache) evictOldestLocked(n int) {
	if n <= 0 {
		return
	}
	type keyed struct {
		key     string
		created time.Time
	}
	all := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, keyed{key: k, created: e.created})
	}
	for i := 0; i < len(all); i++ {
		minIdx := i
		for j := i + 1; j < len(all); j++ {
			if all[j].created.Before(all[minIdx].created) {
				minIdx = j
			}
		}
		all[i], all[minIdx] = all[minIdx], all[i]
	}
	for i := 0; i < n && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
}

// Len implements Cache.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
