package cache

import (
	"sync"
	"time"
)

// Entry is one cached value with its expiry window.
// Invariant: ExpiresAt > CreatedAt; the entry is valid iff now <= ExpiresAt.
type Entry[V any] struct {
	Data      V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is a string-keyed TTL cache. Expiry is lazy: entries are
// evicted when read after their deadline, or by an explicit Cleanup
// sweep. There is no background timer.
type Cache[V any] struct {
	now func() time.Time

	mu   sync.Mutex
	data map[string]Entry[V]
}

// New creates an empty cache using the wall clock.
func New[V any]() *Cache[V] {
	return NewWithClock[V](time.Now)
}

// NewWithClock creates an empty cache with an injectable clock.
func NewWithClock[V any](now func() time.Time) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{
		now:  now,
		data: make(map[string]Entry[V]),
	}
}

// Get returns the entry for key, evicting and reporting a miss when
// the entry has expired.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return Entry[V]{}, false
	}
	if c.now().After(entry.ExpiresAt) {
		delete(c.data, key)
		return Entry[V]{}, false
	}
	return entry, true
}

// Set stores data under key, overwriting any existing entry.
func (c *Cache[V]) Set(key string, data V, ttl time.Duration) {
	now := c.now()
	c.mu.Lock()
	c.data[key] = Entry[V]{
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
}

// Has reports whether key holds an unexpired entry, with the same
// eviction semantics as Get.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key and reports whether an entry existed.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.data[key]
	if ok {
		delete(c.data, key)
	}
	return ok
}

// Cleanup sweeps all entries and evicts those expired as of now.
func (c *Cache[V]) Cleanup() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.data {
		if now.After(entry.ExpiresAt) {
			delete(c.data, key)
		}
	}
}

// Len returns the number of entries, including any not yet evicted.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
