package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "certifier:"

// RedisBackend keeps the mapping as a single string value. The key is never
// given a TTL.
type RedisBackend struct {
	client redis.Cmdable
	key    string
}

// NewRedisBackend stores the mapping under "certifier:<name>".
func NewRedisBackend(client redis.Cmdable, name string) *RedisBackend {
	return &RedisBackend{client: client, key: redisKeyPrefix + name}
}

func (b *RedisBackend) Key() string {
	return b.key
}

func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}
	return raw, nil
}

func (b *RedisBackend) Save(ctx context.Context, payload []byte) error {
	if err := b.client.Set(ctx, b.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", b.key, err)
	}
	return nil
}
