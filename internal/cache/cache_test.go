package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)}
}

func TestMemoryCache_GetPut(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[string](10, clock)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", "alpha", clock.Now().Add(5*time.Minute))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[int](10, clock)
	c.Put("k", 42, clock.Now().Add(time.Minute))

	clock.Advance(59 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire exactly at its expiry time")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on access")
}

func TestMemoryCache_Invalidate(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[int](10, clock)
	c.Put("k", 1, clock.Now().Add(time.Hour))
	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[int](2, clock)

	c.Put("first", 1, clock.Now().Add(time.Hour))
	clock.Advance(time.Second)
	c.Put("second", 2, clock.Now().Add(time.Hour))
	clock.Advance(time.Second)
	c.Put("third", 3, clock.Now().Add(time.Hour))

	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
}

func TestMemoryCache_ZeroSizeStoresNothing(t *testing.T) {
	c := NewMemoryCache[int](0, nil)
	c.Put("k", 1, time.Now().Add(time.Hour))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache[int](100, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put("k", i, time.Now().Add(time.Minute))
				c.Get("k")
			}
		}(i)
	}
	wg.Wait()
	_, ok := c.Get("k")
	assert.True(t, ok)
}
