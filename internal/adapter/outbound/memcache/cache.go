// Package memcache provides the in-process TTL cache backing the cached
// gateway. TTL expiry is the only invalidation mechanism besides explicit
// Delete/Clear: the workload is a small, low-cardinality key set
// (per-resource, per-period), so size-based eviction would be dead weight.
package memcache

import (
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a mutex-guarded key/value store with per-entry expiry. Expiry is
// evaluated lazily at read time; an expired entry is treated as absent and
// removed as a side effect of Get. Set always replaces the whole entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates an empty cache.
func New(logger *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		logger:  logger.With("component", "memcache"),
		now:     time.Now,
	}
}

// Get returns the value stored under key, or false when the key is absent
// or its TTL has elapsed. An entry is never returned once now >= expiresAt.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry between the two lock acquisitions.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.logger.Debug("Cache entry expired", slog.String("key", key))
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A zero or negative ttl makes the
// entry immediately stale.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry regardless of expiry state and reports how
// many were dropped. Exposed to the operator through the admin endpoint
// and the clear_cache tool.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	c.logger.Info("Cache cleared", slog.Int("evicted", n))
	return n
}

// size reports the number of entries currently held, expired or not.
func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
