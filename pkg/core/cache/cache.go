// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     cache
// Description: Thread-safe in-memory TTL cache
// Author:      msto63
// Created:     2026-09-15
// License:     MIT
// ============================================================================

package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item with expiration
type Entry[V any] struct {
	Value      V
	Expiration time.Time
	stored     time.Time
}

// IsExpired checks if the entry has expired
func (e *Entry[V]) IsExpired() bool {
	if e.Expiration.IsZero() {
		return false
	}
	return time.Now().After(e.Expiration)
}

// Cache is a thread-safe in-memory cache with TTL support
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]*Entry[V]
	maxItems int
	ttl      time.Duration

	hits   int64
	misses int64

	stop     chan struct{}
	stopOnce sync.Once
}

// Config holds cache configuration
type Config struct {
	MaxItems        int
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems:        1000,
		TTL:             10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// New creates a new cache and starts its cleanup goroutine. Call Close to
// stop it.
func New[V any](cfg Config) *Cache[V] {
	def := DefaultConfig()
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = def.MaxItems
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	c := &Cache[V]{
		items:    make(map[string]*Entry[V]),
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		stop:     make(chan struct{}),
	}

	go c.cleanupLoop(cfg.CleanupInterval)

	return c
}

// Get retrieves a value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		c.misses++
		return zero, false
	}
	if entry.IsExpired() {
		delete(c.items, key)
		c.misses++
		return zero, false
	}

	c.hits++
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL; ttl <= 0 never expires
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	now := time.Now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}

	c.items[key] = &Entry[V]{
		Value:      value,
		Expiration: exp,
		stored:     now,
	}
}

// Delete removes a value from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Entry[V])
}

// Size returns the number of items in the cache
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns cache statistics; hitRate is a percentage
func (c *Cache[V]) Stats() (hits, misses int64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// Close stops the cleanup goroutine
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// GetOrSet gets a value or computes and stores it if not present.
// Errors from fn are not cached.
func (c *Cache[V]) GetOrSet(key string, fn func() (V, error)) (V, error) {
	if val, ok := c.Get(key); ok {
		return val, nil
	}

	val, err := fn()
	if err != nil {
		return val, err
	}

	c.Set(key, val)
	return val, nil
}

// evictOldest removes the least recently stored entry (lock held)
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.items {
		if oldestKey == "" || entry.stored.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.stored
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.items {
		if entry.IsExpired() {
			delete(c.items, key)
		}
	}
}
