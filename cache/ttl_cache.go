// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type TTLCacheItem[V any] struct {
	value     V
	timestamp time.Time
}

// TTLCache holds values for a fixed time-to-live, fetching misses through
// a single-flight group so concurrent callers share one fetch per key.
// Entries are only evicted on expiry or explicit deletion; the cache is
// unbounded.
type TTLCache[K comparable, V any] struct {
	data    map[K]TTLCacheItem[V]
	ttl     time.Duration
	now     func() time.Time
	lock    sync.RWMutex
	sfGroup singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return NewTTLCacheWithClock[K, V](ttl, time.Now)
}

// NewTTLCacheWithClock uses now instead of the wall clock to stamp and
// expire entries.
func NewTTLCacheWithClock[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]TTLCacheItem[V]),
		ttl:  ttl,
		now:  now,
	}
}

// TTL returns the configured time-to-live.
func (c *TTLCache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value for key while it is younger than the TTL,
// otherwise fetches it with fetchFunc. Failed fetches are not cached.
// If [invalidate] is true the entry is dropped before fetching, so that no
// reader observes the stale value while the refresh is in flight.
func (c *TTLCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.Delete(key)
	} else if v, ok := c.Peek(key); ok {
		return v, nil
	}

	v, err, _ := c.sfGroup.Do(keyToString(key), func() (interface{}, error) {
		newValue, fetchErr := fetchFunc(key)
		if fetchErr != nil {
			return *new(V), fetchErr
		}

		c.lock.Lock()
		c.data[key] = TTLCacheItem[V]{
			value:     newValue,
			timestamp: c.now(),
		}
		c.lock.Unlock()

		return newValue, nil
	})
	if err != nil {
		return *new(V), err
	}
	return v.(V), nil
}

// Peek returns a fresh cached value without fetching.
func (c *TTLCache[K, V]) Peek(key K) (V, bool) {
	c.lock.RLock()
	item, exists := c.data[key]
	c.lock.RUnlock()
	if !exists || c.now().Sub(item.timestamp) >= c.ttl {
		return *new(V), false
	}
	return item.value, true
}

// Delete drops the entry for key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.lock.Lock()
	delete(c.data, key)
	c.lock.Unlock()
}

// Clear drops every entry.
func (c *TTLCache[K, V]) Clear() {
	c.lock.Lock()
	c.data = make(map[K]TTLCacheItem[V])
	c.lock.Unlock()
}

// Len counts stored entries, including expired ones not yet replaced.
func (c *TTLCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.data)
}

// keyToString is defined to allow for both fmt.Stringer and primitive string types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
