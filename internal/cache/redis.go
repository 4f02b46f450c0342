package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/gearbooking/config"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

type RedisCache struct {
	client         *redis.Client
	commandTimeout time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	timeout := cfg.CommandTimeout()
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
		commandTimeout: timeout,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.client.Set(ctx, key, value, ttl).Err()
}

// DeletePattern walks the keyspace with SCAN and unlinks matches in batches.
// Each batch gets its own command timeout.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.scan(ctx, cursor, pattern)
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.unlink(ctx, keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *RedisCache) scan(ctx context.Context, cursor uint64, pattern string) ([]string, uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
}

func (c *RedisCache) unlink(ctx context.Context, keys []string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.client.Unlink(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.commandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.commandTimeout)
}

var _ Cache = (*RedisCache)(nil)
