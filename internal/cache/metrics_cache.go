package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MetricsCache is a read-through cache for computed metric results.
type MetricsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache wraps a redis client as a MetricsCache.
func NewRedisCache(client *redis.Client, logger *zap.Logger) MetricsCache {
	return &redisCache{client: client, logger: logger}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A stale or incompatible payload is treated as a miss.
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// Invalidate deletes every key under the prefix. Writers use it to drop
// cached aggregates whose inputs just changed.
func (c *redisCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
