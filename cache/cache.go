// Package cache implements the resource cache described in spec §4.6: an
// LRU eviction policy with per-entry TTL, backed by
// github.com/hashicorp/golang-lru/v2 for the hashtable+list bookkeeping, and
// our own pool.Pool for the ContentItem copies it hands out and takes back.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/viant/jsonrpc/mcp"
	"github.com/viant/jsonrpc/pool"
)

// entry is what the cache stores per key; CacheEntry in spec terms.
type entry struct {
	key          string
	items        []mcp.ContentItem
	expiry       time.Time // zero value = never
	lastAccessed time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiry.IsZero() && now.After(e.expiry)
}

// Cache is the LRU+TTL resource cache. The embedded golang-lru Cache owns
// the hashtable+list mechanics; the outer mutex serialises the
// expiry-check-then-reorder sequence a plain lru.Cache doesn't know about.
type Cache struct {
	mu sync.RWMutex

	lru        *lru.Cache[string, *entry]
	defaultTTL time.Duration
	itemPool   *pool.Pool[mcp.ContentItem]

	evictedOnPut int // entries evicted to make room for a Put, for metrics
}

// New creates a Cache bounded to capacity entries, applying defaultTTL to
// puts that don't specify one.
func New(capacity int, defaultTTL time.Duration) (*Cache, error) {
	if capacity <= 0 {
		capacity = 1
	}
	c := &Cache{defaultTTL: defaultTTL}
	c.itemPool = pool.New[mcp.ContentItem](
		func() mcp.ContentItem { return mcp.ContentItem{} },
		func(item *mcp.ContentItem) {
			// Keep Data's backing array so the next Acquire can reuse its
			// capacity via cloneInto instead of reallocating; only the
			// length and scalar fields reset.
			item.Type, item.MimeType, item.Size = "", "", 0
			item.Data = item.Data[:0]
		},
		0,
	)
	evicted, err := lru.NewWithEvict[string, *entry](capacity, func(key string, value *entry) {
		c.releaseEntry(value)
	})
	if err != nil {
		return nil, err
	}
	c.lru = evicted
	return c, nil
}

func (c *Cache) releaseEntry(e *entry) {
	for _, item := range e.items {
		c.itemPool.Release(item)
	}
}

// Get returns a caller-owned copy of the cached items for key, or ok=false
// on a miss or an access that finds the entry expired (which also prunes it).
func (c *Cache) Get(key string) (items []mcp.ContentItem, ok bool) {
	now := time.Now()

	c.mu.RLock()
	e, found := c.lru.Peek(key)
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if e.expired(now) {
		c.mu.Lock()
		if e2, stillFound := c.lru.Peek(key); stillFound && e2.expired(time.Now()) {
			c.lru.Remove(key)
		}
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	e, found = c.lru.Get(key) // reorders LRU
	if !found {
		c.mu.Unlock()
		return nil, false
	}
	if e.expired(time.Now()) {
		c.lru.Remove(key)
		c.mu.Unlock()
		return nil, false
	}
	e.lastAccessed = time.Now()
	out := make([]mcp.ContentItem, len(e.items))
	for i, item := range e.items {
		acquired, _ := c.itemPool.Acquire()
		cloneInto(&acquired, item)
		out[i] = acquired
	}
	c.mu.Unlock()
	return out, true
}

// Release returns items obtained from Get to the cache's item pool; the
// items must not be used afterwards.
func (c *Cache) Release(items []mcp.ContentItem) {
	for _, item := range items {
		c.itemPool.Release(item)
	}
}

// cloneInto copies src's fields into dst, reusing dst.Data's backing array
// when it's large enough instead of allocating, so an item Acquire()d from
// itemPool actually gets reused rather than discarded.
func cloneInto(dst *mcp.ContentItem, src mcp.ContentItem) {
	dst.Type = src.Type
	dst.MimeType = src.MimeType
	dst.Size = src.Size
	if cap(dst.Data) >= len(src.Data) {
		dst.Data = dst.Data[:len(src.Data)]
	} else {
		dst.Data = make([]byte, len(src.Data))
	}
	copy(dst.Data, src.Data)
}

// Put inserts or replaces key's entry. ttl == 0 uses the cache default,
// ttl < 0 means never expires, ttl > 0 is an absolute duration from now.
func (c *Cache) Put(key string, items []mcp.ContentItem, ttl time.Duration) {
	if len(items) == 0 {
		return
	}
	var expiry time.Time
	switch {
	case ttl == 0:
		if c.defaultTTL > 0 {
			expiry = time.Now().Add(c.defaultTTL)
		}
	case ttl > 0:
		expiry = time.Now().Add(ttl)
	}

	stored := make([]mcp.ContentItem, len(items))
	for i, item := range items {
		v, _ := c.itemPool.Acquire()
		cloneInto(&v, item)
		stored[i] = v
	}
	e := &entry{key: key, items: stored, expiry: expiry, lastAccessed: time.Now()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(key); ok {
		c.releaseEntry(old)
	}
	c.lru.Add(key, e)
}

// Invalidate removes key's entry, if present, releasing its pooled items.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// PruneExpired performs the two-phase expiry sweep from spec §4.6: collect
// candidate keys under a read pass, then re-check and remove each under the
// write lock so a concurrent Put/Get racing the sweep can't be clobbered by
// a stale decision.
func (c *Cache) PruneExpired() int {
	now := time.Now()

	c.mu.RLock()
	var candidates []string
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && e.expired(now) {
			candidates = append(candidates, key)
		}
	}
	c.mu.RUnlock()
	if len(candidates) == 0 {
		return 0
	}

	pruned := 0
	c.mu.Lock()
	for _, key := range candidates {
		if e, ok := c.lru.Peek(key); ok && e.expired(time.Now()) {
			c.lru.Remove(key)
			pruned++
		}
	}
	c.mu.Unlock()
	return pruned
}

// Len returns the current number of live entries (capacity bound).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
