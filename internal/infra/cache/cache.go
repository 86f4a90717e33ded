// Package cache provides TTL caches for exchange-rate snapshots and other
// short-lived values: an in-process map and a Redis-backed variant.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// New creates a new in-memory cache with the given TTL and starts its
// janitor goroutine. Call Stop to release it.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get retrieves a value. Returns false if not found or expired.
func (c *InMemory[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the configured TTL.
func (c *InMemory[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a value.
func (c *InMemory[T]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, expired or not.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop ends the janitor goroutine. Safe to call more than once.
func (c *InMemory[T]) Stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.items {
				if now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
