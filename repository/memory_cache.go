package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// evictPercent of capacity is dropped, oldest first, once the cache overflows.
const evictPercent = 30

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type memoryEntry struct {
	value     string
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryCache is an in-process CacheRepository with per-entry TTL and a
// fixed capacity.
type MemoryCache struct {
	mu         sync.Mutex
	clock      Clock
	capacity   int
	defaultTTL time.Duration
	entries    map[string]memoryEntry
}

func NewMemoryCache(capacity int, defaultTTL time.Duration, clock Clock) *MemoryCache {
	if clock == nil {
		clock = SystemClock{}
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryCache{
		clock:      clock,
		capacity:   capacity,
		defaultTTL: defaultTTL,
		entries:    make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.expired(entry, c.clock.Now()) {
		delete(c.entries, key)
		return "", false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.clock.Now()
	entry := memoryEntry{value: value, storedAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	c.entries[key] = entry

	if len(c.entries) > c.capacity {
		c.evict(now)
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(e memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// evict drops expired entries, then the oldest entries if still over capacity.
// Caller holds c.mu.
func (c *MemoryCache) evict(now time.Time) {
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) <= c.capacity {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].storedAt.Equal(all[j].storedAt) {
			return all[i].key < all[j].key
		}
		return all[i].storedAt.Before(all[j].storedAt)
	})

	drop := (c.capacity*evictPercent + 99) / 100
	if over := len(all) - c.capacity; drop < over {
		drop = over
	}
	for _, a := range all[:drop] {
		delete(c.entries, a.key)
	}
}
