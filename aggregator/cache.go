package aggregator

import (
	"sync"
	"time"
)

// Cache defaults.
const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 50
)

type cacheEntry struct {
	doc      map[string]any
	storedAt time.Time
}

// DocCache is a TTL cache for merged documents, keyed by normalized full
// target URL. Entries are not individually evicted: when the cache grows
// past MaxEntries the whole map is cleared and the just-stored entry is
// re-inserted. That crude policy is deliberate; the portal watches a few
// dozen services at most.
type DocCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int

	// now is swapped by tests to drive TTL expiry.
	now func() time.Time
}

// NewDocCache creates a cache with the given TTL and size bound; zero
// values fall back to the defaults.
func NewDocCache(ttl time.Duration, maxEntries int) *DocCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &DocCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached document for key when it is younger than the TTL.
func (c *DocCache) Get(key string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.doc, true
}

// Put stores a document under key, applying the clear-all size policy.
func (c *DocCache) Put(key string, doc map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{doc: doc, storedAt: c.now()}
	if len(c.entries) > c.maxEntries {
		entry := c.entries[key]
		c.entries = make(map[string]cacheEntry)
		c.entries[key] = entry
	}
}

// Len returns the number of entries currently stored, expired or not.
func (c *DocCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
