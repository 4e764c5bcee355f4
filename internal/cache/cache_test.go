package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_SetGet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("a", "alpha")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Expiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("a")
	assert.True(t, ok, "recently used entry should survive eviction")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("summary:u1:categories", 1)
	c.Set("summary:u1:months", 2)
	c.Set("summary:u2:categories", 3)

	removed := c.DeletePrefix("summary:u1:")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("summary:u1:categories")
	assert.False(t, ok)
	_, ok = c.Get("summary:u2:categories")
	assert.True(t, ok)
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.ttl = time.Minute
	c.Set("c", 3)

	removed := c.CleanExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Size())
}

func TestLoader_CoalescesConcurrentLoads(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	loader := NewLoader[string](c)

	var calls atomic.Int32
	load := func(ctx context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := loader.GetOrLoad(context.Background(), "key", load)
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses should share one load")

	// A second round hits the cache without loading again.
	v, err := loader.GetOrLoad(context.Background(), "key", load)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_ErrorsNotCached(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	loader := NewLoader[string](c)

	boom := errors.New("upstream down")
	var calls int
	load := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "recovered", nil
	}

	_, err := loader.GetOrLoad(context.Background(), "key", load)
	require.ErrorIs(t, err, boom)

	v, err := loader.GetOrLoad(context.Background(), "key", load)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
}

func TestManager_Cleanup(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(20 * time.Millisecond)
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return c.Size() == 0
	}, time.Second, 10*time.Millisecond)
}
