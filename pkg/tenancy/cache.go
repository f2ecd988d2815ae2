package tenancy

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Cache stores resolved organizations keyed by lookup kind ("slug:acme",
// "domain:example.com", "id:1") to keep hostname resolution off the database
// on the hot path.
type Cache interface {
	// Get retrieves a cached organization by key.
	Get(ctx context.Context, key string) (*Organization, bool)

	// Set stores an organization with the given TTL.
	Set(ctx context.Context, key string, org *Organization, ttl time.Duration)

	// Delete removes a cached entry, e.g. after an organization is updated
	// or suspended.
	Delete(ctx context.Context, key string)

	// Close releases cache resources.
	Close() error
}

func cacheKeyID(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

// CacheKeys returns every cache key an organization may be stored under, for
// invalidation after updates.
func CacheKeys(org *Organization) []string {
	keys := []string{cacheKeyID(org.ID)}
	if org.Slug != "" {
		keys = append(keys, "slug:"+org.Slug)
	}
	if org.CustomDomain != "" {
		keys = append(keys, "domain:"+org.CustomDomain)
	}
	return keys
}

type memoryCacheItem struct {
	org       *Organization
	expiresAt time.Time
}

// memoryCache is the default in-process cache with periodic expiry sweeps.
type memoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryCacheItem
	stop   chan struct{}
	closed bool
}

const cacheSweepInterval = time.Minute

// NewInMemoryCache creates the default in-memory organization cache.
func NewInMemoryCache() Cache {
	c := &memoryCache{
		items: make(map[string]memoryCacheItem),
		stop:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) (*Organization, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.org, true
}

func (c *memoryCache) Set(_ context.Context, key string, org *Organization, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.items[key] = memoryCacheItem{org: org, expiresAt: time.Now().Add(ttl)}
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	return nil
}

func (c *memoryCache) sweep() {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
