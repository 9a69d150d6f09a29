// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import "sync/atomic"

// LRU maps keys to values and evicts the least recently used entry once it
// holds more than its limit.
type LRU[K comparable, V any] struct {
	entries map[K]*node[K, V]
	// head is the most recently used entry, tail the least.
	head, tail *node[K, V]
	limit      int
	onEvict    func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// New creates a cache holding at most limit entries. A limit of 0 means
// unlimited. onEvict, if not nil, receives every entry removed by the limit.
func New[K comparable, V any](limit int, onEvict func(K, V)) *LRU[K, V] {
	return &LRU[K, V]{
		entries: make(map[K]*node[K, V]),
		limit:   max(limit, 0),
		onEvict: onEvict,
	}
}

// Get returns the value stored for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	return n.value, true
}

// GetOrCreate returns the value stored for key, creating it on a miss.
// A failed create leaves the cache unchanged and is not counted.
func (c *LRU[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if n, ok := c.entries[key]; ok {
		c.hits.Add(1)
		c.moveToFront(n)
		return n.value, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.misses.Add(1)
	c.Set(key, v)
	return v, nil
}

// Set stores value for key. Replacing a value does not evict the old one.
func (c *LRU[K, V]) Set(key K, value V) {
	if n, ok := c.entries[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}
	n := &node[K, V]{key: key, value: value}
	c.entries[key] = n
	c.pushFront(n)
	for c.limit > 0 && len(c.entries) > c.limit {
		old := c.tail
		c.remove(old)
		c.evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(old.key, old.value)
		}
	}
}

// DeleteFunc removes every entry whose key matches and passes its value to
// release. It returns the number of entries removed.
func (c *LRU[K, V]) DeleteFunc(match func(K) bool, release func(V)) int {
	removed := 0
	for n := c.head; n != nil; {
		next := n.next
		if match(n.key) {
			c.remove(n)
			if release != nil {
				release(n.value)
			}
			removed++
		}
		n = next
	}
	return removed
}

// Clear removes every entry, passing each value to release.
func (c *LRU[K, V]) Clear(release func(V)) {
	c.DeleteFunc(func(K) bool { return true }, release)
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int { return len(c.entries) }

// Stats returns the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Limit:     c.limit,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Stats contains cache counters.
type Stats struct {
	// Limit is the maximum number of entries, 0 for unlimited.
	Limit     int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

func (c *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU[K, V]) remove(n *node[K, V]) {
	c.unlink(n)
	delete(c.entries, n.key)
}
