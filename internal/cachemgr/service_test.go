// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cachemgr

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, names ...string) *Service {
	t.Helper()
	r := newTestRegistry(t)
	for _, name := range names {
		require.NoError(t, r.RegisterDefault(name))
	}
	return NewService(r)
}

func TestEvictAllUnknownCacheIsNoop(t *testing.T) {
	svc := newTestService(t, "A")
	svc.Put("A", "k", 1)

	assert.NotPanics(t, func() { svc.EvictAll("nonexistent-cache") })
	assert.NotPanics(t, func() { svc.EvictKey("nonexistent-cache", "k") })
	assert.NotPanics(t, func() { svc.Put("nonexistent-cache", "k", 1) })

	v, ok := svc.Get("A", "k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"A"}, svc.Registry().Names())
}

func TestEvictAllIsolation(t *testing.T) {
	svc := newTestService(t, "A", "B")
	svc.Put("A", "k1", "a1")
	svc.Put("A", "k2", "a2")
	svc.Put("B", "k1", "b1")

	svc.EvictAll("A")

	_, ok := svc.Get("A", "k1")
	assert.False(t, ok)
	_, ok = svc.Get("A", "k2")
	assert.False(t, ok)

	v, ok := svc.Get("B", "k1")
	assert.True(t, ok)
	assert.Equal(t, "b1", v)
}

func TestEvictKey(t *testing.T) {
	svc := newTestService(t, "A")
	svc.Put("A", "k1", 1)
	svc.Put("A", "k2", 2)

	svc.EvictKey("A", "k1")
	svc.EvictKey("A", "never-there")

	_, ok := svc.Get("A", "k1")
	assert.False(t, ok)
	v, ok := svc.Get("A", "k2")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestEvictEverything(t *testing.T) {
	svc := newTestService(t, "A", "B", "C")
	for _, name := range []string{"A", "B", "C"} {
		svc.Put(name, "k", name)
	}

	svc.EvictEverything()

	for _, name := range []string{"A", "B", "C"} {
		_, ok := svc.Get(name, "k")
		assert.False(t, ok, name)
	}
}

func TestPutOverwrites(t *testing.T) {
	svc := newTestService(t, "A")
	svc.Put("A", "k", "old")
	svc.Put("A", "k", "new")

	v, ok := svc.Get("A", "k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestExpireAfterWrite(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register("short", Policy{TTL: 150 * time.Millisecond, MaxEntries: 10}))
	svc := NewService(r)

	svc.Put("short", "k", true)
	time.Sleep(80 * time.Millisecond)
	_, ok := svc.Get("short", "k")
	require.True(t, ok, "entry should still be live")

	// The read above must not have extended the lifetime.
	time.Sleep(120 * time.Millisecond)
	_, ok = svc.Get("short", "k")
	assert.False(t, ok, "entry should have expired after its write ttl")
}

func TestMaxEntries(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register("tiny", Policy{TTL: time.Hour, MaxEntries: 2}))
	svc := NewService(r)

	svc.Put("tiny", "a", 1)
	svc.Put("tiny", "b", 2)
	svc.Put("tiny", "c", 3)

	c, _ := r.Get("tiny")
	assert.Equal(t, 2, c.Len())
	_, ok := svc.Get("tiny", "a")
	assert.False(t, ok, "oldest entry should be evicted first")
	_, ok = svc.Get("tiny", "c")
	assert.True(t, ok)
}

func TestMaxEntriesEvictsByWriteOrder(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register("tiny", Policy{TTL: time.Hour, MaxEntries: 2}))
	svc := NewService(r)

	svc.Put("tiny", "a", 1)
	svc.Put("tiny", "b", 2)
	_, ok := svc.Get("tiny", "a")
	require.True(t, ok)
	svc.Put("tiny", "c", 3)

	_, ok = svc.Get("tiny", "a")
	assert.False(t, ok, "reads must not protect the oldest write")
	_, ok = svc.Get("tiny", "b")
	assert.True(t, ok)
	_, ok = svc.Get("tiny", "c")
	assert.True(t, ok)
}

func TestMaxEntriesRewriteRefreshesWriteOrder(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register("tiny", Policy{TTL: time.Hour, MaxEntries: 2}))
	svc := NewService(r)

	svc.Put("tiny", "a", 1)
	svc.Put("tiny", "b", 2)
	svc.Put("tiny", "a", 10)
	svc.Put("tiny", "c", 3)

	v, ok := svc.Get("tiny", "a")
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	_, ok = svc.Get("tiny", "b")
	assert.False(t, ok)

	c, _ := r.Get("tiny")
	assert.Equal(t, 2, c.Len())
}

func TestMemoizeCachesValue(t *testing.T) {
	svc := newTestService(t, "A")
	var calls atomic.Int32
	load := func() (any, error) {
		calls.Add(1)
		return "value", nil
	}

	for range 3 {
		v, err := svc.Memoize("A", "k", load)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	svc.EvictKey("A", "k")
	_, err := svc.Memoize("A", "k", load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	svc := newTestService(t, "A")
	boom := errors.New("boom")
	var calls atomic.Int32

	for range 2 {
		_, err := svc.Memoize("A", "k", func() (any, error) {
			calls.Add(1)
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, int32(2), calls.Load())
	_, ok := svc.Get("A", "k")
	assert.False(t, ok)
}

func TestMemoizeUnknownCacheAlwaysLoads(t *testing.T) {
	svc := newTestService(t)
	var calls atomic.Int32

	for range 3 {
		v, err := svc.Memoize("missing", "k", func() (any, error) {
			calls.Add(1)
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestMemoizeDiscardsValueLoadedBeforeEviction(t *testing.T) {
	svc := newTestService(t, "A")

	v, err := svc.Memoize("A", "k", func() (any, error) {
		// An authoritative write and its invalidation land while the
		// stale value is being loaded.
		svc.EvictKey("A", "k")
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v)

	_, ok := svc.Get("A", "k")
	assert.False(t, ok, "stale value must not be written back")

	v, err = svc.Memoize("A", "k", func() (any, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestMemoizeCoalescesConcurrentMisses(t *testing.T) {
	svc := newTestService(t, "A")
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Memoize("A", "k", func() (any, error) {
				calls.Add(1)
				<-release
				return "v", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	v, ok := svc.Get("A", "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoized(t *testing.T) {
	svc := newTestService(t, "A")

	b, err := Memoized(svc, "A", "flag", func() (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.True(t, b)

	b, err = Memoized(svc, "A", "flag", func() (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.True(t, b, "second call should be served from cache")
}

func TestMemoizedTypeMismatchReloads(t *testing.T) {
	svc := newTestService(t, "A")
	svc.Put("A", "flag", "not a bool")

	b, err := Memoized(svc, "A", "flag", func() (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.True(t, b)
}

func TestConcurrentClearsAndReads(t *testing.T) {
	svc := newTestService(t, "A", "B")
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for range 200 {
				svc.Put("A", "k", i)
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				svc.EvictAll("A")
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				_, _ = svc.Memoize("B", "k", func() (any, error) { return i, nil })
			}
		}()
	}
	wg.Wait()
}
