// Package cache provides a small generic in-memory cache with per-entry TTL.
//
// Feed cursors, comment reply targets, pending confirmations and login
// windows live here: an entry nobody touches ages out, and the eviction
// hook lets the owner tear down whatever was attached to it.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a concurrency-safe map whose entries expire ttl after their
// last write. Expired entries are invisible to Get and are removed by a
// background sweep every cleanupInterval.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	onEvict func(key K, value V)

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New starts a cache and its cleanup goroutine. Call Close to stop it.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// OnEvict registers a hook called (outside the lock) for every entry the
// sweep removes because it expired. Explicit Delete does not fire it.
// The key may have been written again by the time the hook runs, so
// hooks that tear state down check Get first.
func (c *TTLCache[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the live value for key.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value and restarts its TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Update applies fn to the current value (zero value when absent or
// expired) and stores the result atomically, restarting the TTL.
func (c *TTLCache[K, V]) Update(key K, fn func(current V, found bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && time.Now().After(e.expiresAt) {
		ok = false
	}
	var current V
	if ok {
		current = e.value
	}

	next := fn(current, ok)
	c.entries[key] = entry[V]{value: next, expiresAt: time.Now().Add(c.ttl)}
	return next
}

// Touch restarts the TTL of a live entry without changing it and reports
// whether the entry was there.
func (c *TTLCache[K, V]) Touch(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return false
	}
	e.expiresAt = time.Now().Add(c.ttl)
	c.entries[key] = e
	return true
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len counts stored entries, expired ones included until the next sweep.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
}

func (c *TTLCache[K, V]) evictExpired() {
	type evicted struct {
		key   K
		value V
	}

	c.mu.Lock()
	now := time.Now()
	var gone []evicted
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			gone = append(gone, evicted{key, e.value})
		}
	}
	hook := c.onEvict
	c.mu.Unlock()

	if hook == nil {
		return
	}
	for _, g := range gone {
		hook(g.key, g.value)
	}
}
