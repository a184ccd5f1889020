// Package cache provides an in-memory TTL cache with LRU eviction, used in a
// cache-aside pattern in front of upstream PMS calls.
//
// State is process-local: each replica holds its own cache, the same way each
// replica holds its own circuit breaker state.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// entry is one cached value with its expiry and access bookkeeping.
type entry[V any] struct {
	value          V
	createdAt      time.Time
	expiresAt      time.Time
	hitCount       int64
	lastAccessedAt time.Time
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	ItemCount int   `json:"item_count"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	MaxSize   int   `json:"max_size"`
}

// Cache is a fixed-capacity key/value store with least-recently-used
// eviction and per-entry expiry. An expired entry behaves as a miss even if
// capacity pressure never evicted it. Safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	store      *lru.LRU[string, *entry[V]]
	defaultTTL time.Duration
	maxSize    int
	clock      Clock

	hits   int64
	misses int64
}

// Option customizes a Cache.
type Option[V any] func(*Cache[V])

// WithClock injects a clock, used by tests to control expiry.
func WithClock[V any](c Clock) Option[V] {
	return func(cc *Cache[V]) { cc.clock = c }
}

// New creates a cache holding at most maxSize entries. defaultTTL applies to
// Set calls that do not override it.
func New[V any](maxSize int, defaultTTL time.Duration, opts ...Option[V]) (*Cache[V], error) {
	c := &Cache[V]{
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		clock:      realClock{},
	}
	store, err := lru.NewLRU[string, *entry[V]](maxSize, nil)
	if err != nil {
		return nil, err
	}
	c.store = store
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the value for key. The second return is false on a miss,
// including the case where the entry exists but has expired. A hit refreshes
// the entry's LRU recency but never its expiry.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.store.Get(key)
	if !ok {
		c.misses++
		return zero, false
	}

	now := c.clock.Now()
	if now.After(e.expiresAt) {
		c.store.Remove(key)
		c.misses++
		return zero, false
	}

	e.hitCount++
	e.lastAccessedAt = now
	c.hits++
	return e.value, true
}

// Set stores value under key. ttl, when positive, overrides the default TTL
// for this entry. Inserting over capacity evicts the least recently used
// entry.
func (c *Cache[V]) Set(key string, value V, ttl ...time.Duration) {
	d := c.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.store.Add(key, &entry[V]{
		value:          value,
		createdAt:      now,
		expiresAt:      now.Add(d),
		lastAccessedAt: now,
	})
}

// Del removes key from the cache. Removing an absent key is a no-op.
func (c *Cache[V]) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Remove(key)
}

// Reset drops every entry and zeroes the hit/miss counters.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Purge()
	c.hits = 0
	c.misses = 0
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		ItemCount: c.store.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		MaxSize:   c.maxSize,
	}
}
