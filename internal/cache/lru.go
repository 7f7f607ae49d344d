// Package cache provides a small in-process TTL cache with LRU eviction,
// used to keep hot read paths like the budget summary off the database.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// LRU is a fixed-capacity cache whose entries expire after a TTL. Reads
// refresh recency, writes of an existing key replace the value and reset
// the TTL.
type LRU[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	elements map[string]*list.Element
	order    *list.List
}

func NewLRU[T any](capacity int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		capacity: capacity,
		ttl:      ttl,
		elements: make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.elements[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.elements[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.elements[key] = c.order.PushFront(e)
	if c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.elements[key]; ok {
		c.remove(elem)
	}
}

// CleanExpired drops every expired entry and reports how many were removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.elements)
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.elements, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
