package cache

import (
	"sync"
	"time"
)

// entry holds a cached payload with expiration.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// memoryCache is a thread-safe in-process cache with per-entry TTL.
// It is the fast tier; reads never return expired values.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]entry)}
}

// get retrieves a value. Returns nil, false if not found or expired.
func (c *memoryCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// set stores a value with the given TTL, overwriting any previous entry.
func (c *memoryCache) set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// setUntil stores a value with an absolute expiry, used when
// re-populating from the durable tier.
func (c *memoryCache) setUntil(key string, value []byte, expiresAt time.Time) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// invalidate removes a key.
func (c *memoryCache) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// flush removes all entries.
func (c *memoryCache) flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// cleanup removes expired entries. Can be called periodically.
func (c *memoryCache) cleanup() {
	c.mu.Lock()
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
