// Package cache provides a thread-safe in-memory TTL cache.
//
// The daily schedule is re-fetched from the upstream on demand; the cache
// bounds that to one upstream call per freshness window. Every read checks
// the entry's fetch timestamp against its TTL — there is no implicit
// module-level state.
package cache

import (
	"sync"
	"time"
)

// Default TTLs for the values the service caches.
const (
	TTLSchedule = 1 * time.Hour  // today's match list
	TTLRankings = 24 * time.Hour // standings tables
	TTLH2H      = 12 * time.Hour // head-to-head series
	evictEvery  = 5 * time.Minute
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache. Pass enabled=false for a no-op cache.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	enabled bool
}

// New creates a cache and starts its background eviction loop.
func New[T any](enabled bool) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]entry[T]),
		enabled: enabled,
	}
	if enabled {
		go c.evictLoop()
	}
	return c
}

// Get retrieves a cached value if it is still fresh.
func (c *Cache[T]) Get(key string) (value T, ok bool) {
	if !c.enabled {
		return value, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with a TTL, stamping it with the fetch time.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	if !c.enabled {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{
		value:     value,
		fetchedAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Stats returns cache statistics for the health endpoint.
func (c *Cache[T]) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// evictLoop periodically removes expired entries.
func (c *Cache[T]) evictLoop() {
	ticker := time.NewTicker(evictEvery)
	defer ticker.Stop()
	for range ticker.C {
		c.evict()
	}
}

func (c *Cache[T]) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
