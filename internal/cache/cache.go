package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is a bounded key/value store whose entries expire a fixed duration
// after insertion. When the cache is full the entry inserted earliest is
// evicted to make room. Reads and writes never block on anything but the
// internal mutex, so callers may treat them as synchronous.
type Cache[V any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]entry[V]
	order      []string

	timeNow func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New creates a cache holding at most maxEntries values for up to ttl each.
func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	return NewWithClock[V](ttl, maxEntries, time.Now)
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock[V any](ttl time.Duration, maxEntries int, timeNow func() time.Time) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}

	return &Cache[V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]entry[V], maxEntries),
		order:      make([]string, 0, maxEntries),
		timeNow:    timeNow,
	}
}

// Get returns the value stored under key. A value whose TTL has elapsed is
// treated as a miss and removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if c.timeNow().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}

	return e.value, true
}

// Set stores value under key. An existing key is overwritten in place and its
// TTL restarted. Inserting into a full cache evicts the oldest entry first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.timeNow().Add(c.ttl)

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
		return
	}

	for len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.order = append(c.order, key)
}

// Len returns the number of resident entries, counting expired ones that have
// not been touched since expiry.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// evictOldest drops the earliest-inserted key still resident.
// Keys already removed by expired reads are skipped.
// Callers must hold c.mu.
func (c *Cache[V]) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]

		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}

// Key derives a cache key as a sha256 digest over the provided parts, so two
// semantically identical inputs collapse to the same upstream call regardless
// of their length.
func Key(parts ...string) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(strings.TrimSpace(part)))
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
