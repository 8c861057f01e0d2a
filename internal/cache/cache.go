// Package cache provides the bounded, TTL-aware maps the engine keeps its
// hot state in: resolved identities, per-user memory fragments and derived
// personality profiles.
package cache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Entry pairs a cached value with the moment it was written.
type Entry[V any] struct {
	Value     V
	Timestamp time.Time
}

// Cache is a bounded map with insertion/update-order eviction. Eviction is
// deliberately NOT true LRU: a read does not refresh an entry's position,
// only a Put does. TTL is a read-side concern; stale entries count as misses
// and are dropped lazily or by Prune.
type Cache[V any] struct {
	mu      sync.Mutex
	clk     clock.Clock
	maxSize int
	ttl     time.Duration // zero means entries never expire

	entries map[string]Entry[V]
	order   []string
}

type Option[V any] func(*Cache[V])

func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *Cache[V]) { c.ttl = ttl }
}

func WithClock[V any](clk clock.Clock) Option[V] {
	return func(c *Cache[V]) { c.clk = clk }
}

const DefaultMaxSize = 1000

func New[V any](maxSize int, opts ...Option[V]) *Cache[V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache[V]{
		clk:     clock.New(),
		maxSize: maxSize,
		entries: make(map[string]Entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value if present and fresh. A stale entry is removed and
// reported as a miss so the caller recomputes and re-Puts.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e) {
		c.remove(key)
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Put inserts or refreshes an entry, moving it to the back of the eviction
// order, then enforces the size bound oldest-first.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeFromOrder(key)
	}
	c.entries[key] = Entry[V]{Value: value, Timestamp: c.clk.Now()}
	c.order = append(c.order, key)

	for len(c.entries) > c.maxSize {
		c.remove(c.order[0])
	}
}

// Update mutates an entry in place without touching its eviction position or
// timestamp. Used by the consolidation job to trim fragment lists.
func (c *Cache[V]) Update(key string, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return false
	}
	e.Value = fn(e.Value)
	c.entries[key] = e
	return true
}

// Upsert reads, transforms and stores an entry under one lock acquisition,
// creating it when absent or expired. Follows Put's eviction-order rules.
// fn receives the current value and whether one existed.
func (c *Cache[V]) Upsert(key string, fn func(V, bool) V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.expired(e) {
		c.remove(key)
		ok = false
	}
	var cur V
	if ok {
		cur = e.Value
		c.removeFromOrder(key)
	}
	c.entries[key] = Entry[V]{Value: fn(cur, ok), Timestamp: c.clk.Now()}
	c.order = append(c.order, key)

	for len(c.entries) > c.maxSize {
		c.remove(c.order[0])
	}
}

// Delete removes an entry if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry[V])
	c.order = nil
}

// Keys returns the current keys oldest-first.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Prune drops expired entries and restores the size bound. Writers racing
// past the bound are tolerated between calls; the periodic cleanup invokes
// Prune to self-heal.
func (c *Cache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	if c.ttl > 0 {
		for key, e := range c.entries {
			if c.expired(e) {
				c.remove(key)
				removed++
			}
		}
	}
	for len(c.entries) > c.maxSize {
		c.remove(c.order[0])
		removed++
	}
	return removed
}

func (c *Cache[V]) expired(e Entry[V]) bool {
	return c.ttl > 0 && c.clk.Now().Sub(e.Timestamp) >= c.ttl
}

func (c *Cache[V]) remove(key string) {
	delete(c.entries, key)
	c.removeFromOrder(key)
}

func (c *Cache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
