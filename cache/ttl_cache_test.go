// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	lock sync.Mutex
	t    time.Time
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	c.t = c.t.Add(d)
	c.lock.Unlock()
}

func TestTTLCacheSingleKey(t *testing.T) {
	tests := []struct {
		name          string
		skipCache     bool
		advanceBefore time.Duration
		expectedCount int
	}{
		{
			name:          "fresh cache, fetch",
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			expectedCount: 1,
		},
		{
			name:          "just before expiry, no fetch",
			advanceBefore: 59 * time.Second,
			expectedCount: 1,
		},
		{
			name:          "skipCache=true, fetch",
			skipCache:     true,
			expectedCount: 2,
		},
		{
			name:          "ttl expired, fetch",
			advanceBefore: time.Minute,
			expectedCount: 3,
		},
	}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cache := NewTTLCacheWithClock[string, int](time.Minute, clock.Now)
	fetchCount := 0
	fetchFunc := func(_ string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			clock.Advance(tt.advanceBefore)

			val, err := cache.Get("test", fetchFunc, tt.skipCache)
			require.NoError(err)
			require.Equal(42, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestTTLCacheFetchErrorNotCached(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Hour)
	errFetch := errors.New("unreachable")

	_, err := cache.Get("k", func(string) (int, error) { return 0, errFetch }, false)
	require.ErrorIs(err, errFetch)
	require.Zero(cache.Len())

	val, err := cache.Get("k", func(string) (int, error) { return 7, nil }, false)
	require.NoError(err)
	require.Equal(7, val)
}

func TestTTLCacheDeleteClear(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Hour)
	fetch := func(k string) (int, error) { return len(k), nil }

	for _, k := range []string{"a", "bb", "ccc"} {
		_, err := cache.Get(k, fetch, false)
		require.NoError(err)
	}
	require.Equal(3, cache.Len())

	cache.Delete("bb")
	_, ok := cache.Peek("bb")
	require.False(ok)
	v, ok := cache.Peek("ccc")
	require.True(ok)
	require.Equal(3, v)

	cache.Clear()
	require.Zero(cache.Len())
}

func TestTTLCacheConcurrentMissesShareFetch(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Hour)
	var fetches atomic.Int32
	release := make(chan struct{})
	fetch := func(string) (int, error) {
		fetches.Add(1)
		<-release
		return 1, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.Get("shared", fetch, false)
			require.NoError(err)
			require.Equal(1, v)
		}()
	}
	require.Eventually(func() bool { return fetches.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	require.LessOrEqual(fetches.Load(), int32(1))
}
