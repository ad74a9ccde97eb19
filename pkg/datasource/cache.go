package datasource

import (
	"sync"
	"time"
)

// cacheKey scopes entries by symbol, kind and adapter scope so auxiliary
// payloads from different adapters never collide.
type cacheKey struct {
	symbol string
	kind   Kind
	scope  string
}

type cacheEntry struct {
	record    *Record
	expiresAt time.Time
}

// ResultCache is a short-TTL read-through cache that absorbs repeated
// fetches within one processing cycle. Entries are immutable once written
// and lazily evicted on lookup; staleness, not memory pressure, is the only
// correctness concern.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	now     func() time.Time
}

// NewResultCache constructs an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached record for (symbol, kind, scope), or nil on a miss.
// Expired entries are treated as misses and removed.
func (c *ResultCache) Get(symbol string, kind Kind, scope string) *Record {
	key := cacheKey{symbol: symbol, kind: kind, scope: scope}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another worker may have refreshed.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil
	}
	return entry.record
}

// Put stores a record under (symbol, kind, scope) for ttl. Non-positive ttl
// entries are not stored.
func (c *ResultCache) Put(symbol string, kind Kind, scope string, record *Record, ttl time.Duration) {
	if record == nil || ttl <= 0 {
		return
	}
	key := cacheKey{symbol: symbol, kind: kind, scope: scope}

	c.mu.Lock()
	c.entries[key] = cacheEntry{record: record, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Len reports the number of resident entries, expired or not.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
