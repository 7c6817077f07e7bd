package cache

import (
	"sync"
	"time"
)

// Clock abstracts time so expiry can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Cache is a keyed store whose entries carry an absolute expiry time.
type Cache[V any] interface {
	// Get returns the value for key if present and not expired.
	Get(key string) (V, bool)
	// Put stores value under key until expiry.
	Put(key string, value V, expiry time.Time)
	// Invalidate removes key.
	Invalidate(key string)
}

// Entry represents a cached value
type Entry[V any] struct {
	Value     V         `json:"value"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int       `json:"hit_count"`
}

// Stats is a snapshot of cache counters
type Stats struct {
	Entries   int     `json:"entries"`
	MaxSize   int     `json:"max_size"`
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
}

// MemoryCache is an in-process Cache guarded by a mutex. Expired entries are
// dropped lazily on access; there is no background sweeper.
type MemoryCache[V any] struct {
	entries   map[string]Entry[V]
	mutex     sync.Mutex
	maxSize   int
	clock     Clock
	hitCount  int64
	missCount int64
}

// NewMemoryCache creates a cache holding at most maxSize entries. A nil clock
// means the system clock.
func NewMemoryCache[V any](maxSize int, clock Clock) *MemoryCache[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryCache[V]{
		entries: make(map[string]Entry[V]),
		maxSize: maxSize,
		clock:   clock,
	}
}

// Get retrieves a value from cache
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || !c.clock.Now().Before(entry.ExpiresAt) {
		if exists {
			delete(c.entries, key)
		}
		c.missCount++
		var zero V
		return zero, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.Value, true
}

// Put stores a value in cache
func (c *MemoryCache[V]) Put(key string, value V, expiry time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Don't store anything if max size is 0
	if c.maxSize <= 0 {
		return
	}

	now := c.clock.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked(now)
	}

	c.entries[key] = Entry[V]{
		Value:     value,
		CachedAt:  now,
		ExpiresAt: expiry,
	}
}

// Invalidate removes a value from cache
func (c *MemoryCache[V]) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache[V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *MemoryCache[V]) GetStats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return Stats{
		Entries:   len(c.entries),
		MaxSize:   c.maxSize,
		HitCount:  c.hitCount,
		MissCount: c.missCount,
		HitRatio:  ratio,
	}
}

// evictLocked drops expired entries, then the oldest one if still full.
func (c *MemoryCache[V]) evictLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}

	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
