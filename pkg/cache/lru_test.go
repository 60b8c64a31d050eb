package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/cache"
)

func TestLRUCache(t *testing.T) {
	t.Parallel()

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRUCache[string, int](3)
		_, existed := c.Put("a", 1)
		assert.False(t, existed)

		old, existed := c.Put("a", 2)
		assert.True(t, existed)
		assert.Equal(t, 1, old)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)

		v, ok = c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, v)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRUCache[string, int](2)
		var evicted []string
		c.SetEvictCallback(func(key string, _ int) { evicted = append(evicted, key) })

		c.Put("a", 1)
		c.Put("b", 2)
		c.Get("a")
		c.Put("c", 3)

		assert.Equal(t, []string{"b"}, evicted)
		_, ok := c.Get("b")
		assert.False(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("remove and clear", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRUCache[string, int](3)
		c.Put("a", 1)
		c.Put("b", 2)

		v, ok := c.Remove("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		_, ok = c.Remove("a")
		assert.False(t, ok)

		cleared := 0
		c.SetEvictCallback(func(string, int) { cleared++ })
		c.Clear()
		assert.Equal(t, 1, cleared)
		assert.Zero(t, c.Len())
	})

	t.Run("panics on non-positive capacity", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	})
}

func TestLRUCacheTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.NewLRUCache[string, string](4)
	c.SetClock(func() time.Time { return now })

	c.PutTTL("short", "x", time.Second)
	c.PutTTL("forever", "y", 0)

	_, ok := c.Get("short")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	now = now.Add(24 * time.Hour)
	v, ok := c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	c.PutTTL("forever", "z", time.Minute)
	now = now.Add(time.Minute)
	_, ok = c.Get("forever")
	assert.False(t, ok)
}

func TestLRUCacheConcurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, int](16)
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.PutTTL(i%32, i, time.Minute)
			c.Get(i % 32)
			if i%5 == 0 {
				c.Remove(i % 32)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
