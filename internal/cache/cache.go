package cache

import (
	"sync"
	"time"
)

// MemoryCache is the in-process cache backend, used when no Redis
// address is configured. Expired entries are swept by a background
// janitor once a minute.
type MemoryCache struct {
	mu     sync.RWMutex
	items  map[string]record
	ttl    time.Duration
	stopCh chan struct{}
}

type record struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory cache with the given default TTL
func NewMemory(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:  make(map[string]record),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.items[key]
	if !ok || time.Now().After(r.expiresAt) {
		return nil, false
	}
	return r.value, true
}

func (c *MemoryCache) Set(key string, value []byte) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *MemoryCache) SetWithTTL(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = record{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]record)
}

// Stop terminates the background janitor
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}

func (c *MemoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, r := range c.items {
		if now.After(r.expiresAt) {
			delete(c.items, key)
		}
	}
}

var _ Cache = (*MemoryCache)(nil)
