// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"sync"

	"github.com/luxfi/geth/common/lru"
)

// LRUCache is a size-bounded cache for values that never go stale, such as
// parsed contract bindings.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
	lock  sync.Mutex
}

func NewLRUCache[K comparable, V any](size int) *LRUCache[K, V] {
	return &LRUCache[K, V]{
		cache: lru.NewCache[K, V](size),
	}
}

// Get returns the cached value for key or builds it with fetchFunc.
// If [invalidate] is true the entry is removed before fetching.
func (c *LRUCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	c.lock.Lock()
	if invalidate {
		c.cache.Remove(key)
	} else if value, found := c.cache.Get(key); found {
		c.lock.Unlock()
		return value, nil
	}
	c.lock.Unlock()

	newValue, err := fetchFunc(key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.lock.Lock()
	c.cache.Add(key, newValue)
	c.lock.Unlock()

	return newValue, nil
}

// Remove drops key, reporting whether it was present.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.cache.Remove(key)
}

func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.cache.Len()
}

// Purge empties the cache.
func (c *LRUCache[K, V]) Purge() {
	c.lock.Lock()
	c.cache.Purge()
	c.lock.Unlock()
}
