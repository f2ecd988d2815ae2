package tenancy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolved organizations across application instances so a
// suspension or domain change propagates without per-instance warmup.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates an organization cache backed by Redis. Entries are
// stored as JSON under prefix (default "tenancy:org:").
func NewRedisCache(client *redis.Client, prefix string) Cache {
	if prefix == "" {
		prefix = "tenancy:org:"
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Organization, bool) {
	payload, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var org Organization
	if err := json.Unmarshal(payload, &org); err != nil {
		// Corrupt entry; drop it so the next lookup refreshes from the
		// provider.
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	return &org, true
}

func (c *redisCache) Set(ctx context.Context, key string, org *Organization, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(org)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, payload, ttl)
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, c.prefix+key)
}

func (c *redisCache) Close() error {
	// The client is owned by the caller and may be shared.
	return nil
}
