package cache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a concurrency-safe map whose entries expire after a fixed TTL.
// Expired entries are treated as absent and dropped on access or Purge.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[K]entry[V]
}

// NewTTLCache creates a cache. A nil clock uses the wall clock.
func NewTTLCache[K comparable, V any](ttl time.Duration, clk clock.Clock) *TTLCache[K, V] {
	if clk == nil {
		clk = clock.New()
	}
	return &TTLCache[K, V]{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[K]entry[V]),
	}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// GetOrSet returns the live value for key, storing the result of create when
// there is none. create runs under the cache lock.
func (c *TTLCache[K, V]) GetOrSet(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return e.value
	}

	value := create()
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
	return value
}

// Acquire returns the live value for key and restarts its TTL, so an entry in
// steady use never expires. A missing key is filled by create unless the cache
// still holds limit entries after expired ones are dropped, in which case ok
// is false. A limit of zero or less means unbounded.
func (c *TTLCache[K, V]) Acquire(key K, create func() V, limit int) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, found := c.entries[key]; found && now.Before(e.expiresAt) {
		e.expiresAt = now.Add(c.ttl)
		c.entries[key] = e
		return e.value, true
	}
	delete(c.entries, key)

	if limit > 0 && len(c.entries) >= limit {
		c.purgeLocked(now)
		if len(c.entries) >= limit {
			return value, false
		}
	}

	value = create()
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
	return value, true
}

func (c *TTLCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Purge removes every expired entry and returns how many were dropped.
func (c *TTLCache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.purgeLocked(c.clock.Now())
}

func (c *TTLCache[K, V]) purgeLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, including expired ones not yet purged.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
