// Package cachettl is a small generic in-memory cache with per-entry
// expiration. Expired entries are evicted lazily on lookup; an optional
// background loop sweeps them out proactively.
package cachettl

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache maps comparable keys to values with a time-to-live. All methods
// are safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	closeOnce  sync.Once
}

// New creates a cache. Entries set without an explicit TTL expire after
// defaultTTL; zero means they never expire. When cleanupInterval is
// positive a background goroutine purges expired entries at that
// interval until Close is called.
func New[K comparable, V any](defaultTTL, cleanupInterval time.Duration) *Cache[K, V] {
	return NewWithClock[K, V](defaultTTL, cleanupInterval, time.Now)
}

// NewWithClock is New with an injected clock, for tests that control
// time.
func NewWithClock[K comparable, V any](defaultTTL, cleanupInterval time.Duration, now func() time.Time) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		now:        now,
		stop:       make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

// Get returns the live value for key. An expired entry is evicted and
// reported as missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key, expiring after ttl. A zero or
// negative ttl keeps the entry until overwritten or deleted.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return ok
}

// Len counts live entries without evicting expired ones.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	now := c.now()
	for _, e := range c.entries {
		if !e.expired(now) {
			count++
		}
	}
	return count
}

// PurgeExpired removes every expired entry and returns how many were
// removed.
func (c *Cache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Close stops the background cleanup loop. Safe to call more than once.
func (c *Cache[K, V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache[K, V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.PurgeExpired()
		case <-c.stop:
			return
		}
	}
}
