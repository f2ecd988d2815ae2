package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore persists sessions in Redis so requests can land on any
// application instance. Expiry is delegated to Redis TTLs.
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a session store backed by Redis. Keys are stored
// under prefix (default "session:").
func NewRedisStore(client *redis.Client, prefix string) Store {
	if prefix == "" {
		prefix = "session:"
	}
	return &redisStore{client: client, prefix: prefix}
}

func (r *redisStore) key(token string) string {
	return r.prefix + token
}

func (r *redisStore) write(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (r *redisStore) Create(ctx context.Context, s *Session) error {
	return r.write(ctx, s)
}

func (r *redisStore) Get(ctx context.Context, token string) (*Session, error) {
	payload, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	return &s, nil
}

func (r *redisStore) Update(ctx context.Context, s *Session) error {
	return r.write(ctx, s)
}

func (r *redisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}
