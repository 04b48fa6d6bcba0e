package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys when no prefix is configured.
const DefaultRedisPrefix = "folio:session:"

// RedisStore keeps session entries in Redis, relying on key TTLs for expiration.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore wraps a Redis client. An empty prefix falls back to DefaultRedisPrefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(name string) string { return r.prefix + name }

func (r *RedisStore) Get(ctx context.Context, name string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session entry %q: %w", name, err)
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := r.client.Set(ctx, r.key(name), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session entry %q: %w", name, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.key(name)).Err(); err != nil {
		return fmt.Errorf("failed to clear session entry %q: %w", name, err)
	}
	return nil
}
