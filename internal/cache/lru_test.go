package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("2025-05", 5)
	c.Set("2025-06", 6)
	_, _ = c.Get("2025-05")
	c.Set("2025-07", 7)

	_, ok := c.Get("2025-06")
	assert.False(t, ok)
	v, ok := c.Get("2025-05")
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, []string{"2025-06"}, evicted)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")

	now = now.Add(2 * time.Minute)
	c.Set("c", "z")

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_PurgeAndEach(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	evictions := 0
	c.OnEvict(func(string, int) { evictions++ })

	c.Set("a", 1)
	c.Set("b", 2)

	var keys []string
	c.Each(func(k string, _ int) { keys = append(keys, k) })
	assert.Equal(t, []string{"b", "a"}, keys)

	c.Purge()
	assert.Zero(t, c.Size())
	assert.Equal(t, 2, evictions)
}

func TestLRUCache_DeleteAndReplaceNotify(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	var got []int
	c.OnEvict(func(_ string, v int) { got = append(got, v) })

	c.Set("a", 1)
	c.Set("a", 2)
	c.Delete("a")
	c.Delete("missing")

	assert.Equal(t, []int{1, 2}, got)
}

func TestManager_CleanNow(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(time.Hour)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	assert.Equal(t, 1, m.CleanNow())
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
}
