package datamart

import (
	"sync"
	"time"
)

// DefaultCacheExpiry matches the cadence at which the Datamart catalogs change.
const DefaultCacheExpiry = 200 * time.Minute

type cacheEntry struct {
	expires time.Time
	body    []byte
}

// Cache is an expiring response cache. Expired entries are flushed on every
// access so a stale body is never returned. A Cache with a non-positive expiry
// never stores anything.
type Cache struct {
	mu      sync.Mutex
	expiry  time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a cache whose entries live for expiry.
func NewCache(expiry time.Duration) *Cache {
	return &Cache{
		expiry:  expiry,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached body for key, if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flush()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.body, true
}

// Set stores body under key.
func (c *Cache) Set(key string, body []byte) {
	if c.expiry <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{expires: c.now().Add(c.expiry), body: body}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flush()
	return len(c.entries)
}

// flush drops expired entries. Callers hold c.mu.
func (c *Cache) flush() {
	now := c.now()
	for k, e := range c.entries {
		if !e.expires.After(now) {
			delete(c.entries, k)
		}
	}
}
