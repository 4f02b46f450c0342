// Package cache holds the result-cache backends used by the query executor.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/gearbooking/config"
	"go.uber.org/zap"
)

// Cache stores encoded query results under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePattern removes every key matching a glob pattern such as "bookings:*".
	DeletePattern(ctx context.Context, pattern string) error
	Close() error
}

// Open picks the cache backend for the API process. A configured Redis is
// always used, even when the first ping fails, so every process keeps
// invalidating the same store; reads fall through to the database while it
// is down. Without a Redis address it uses the in-process cache. It returns
// nil when caching is disabled.
func Open(ctx context.Context, cacheCfg config.CacheConfig, redisCfg config.RedisConfig, log *zap.Logger) Cache {
	if !cacheCfg.Enabled {
		log.Info("result cache disabled")
		return nil
	}
	if redisCfg.Addr == "" {
		log.Info("no redis address configured, using in-process cache")
		return NewMemoryCache(time.Duration(cacheCfg.SweepSeconds) * time.Second)
	}
	return openRedis(ctx, redisCfg, log)
}

// OpenShared is Open for secondary processes such as the worker. It never
// returns a private in-process cache: entries written there would be
// invisible to the API, and its invalidations would not reach the API's.
func OpenShared(ctx context.Context, cacheCfg config.CacheConfig, redisCfg config.RedisConfig, log *zap.Logger) Cache {
	if !cacheCfg.Enabled || redisCfg.Addr == "" {
		log.Info("no shared cache configured, running uncached")
		return nil
	}
	return openRedis(ctx, redisCfg, log)
}

func openRedis(ctx context.Context, redisCfg config.RedisConfig, log *zap.Logger) Cache {
	rc := NewRedisCache(redisCfg)
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis unreachable, cached reads fall through to the database until it recovers",
			zap.String("addr", redisCfg.Addr),
			zap.Error(err),
		)
		return rc
	}
	log.Info("using redis result cache", zap.String("addr", redisCfg.Addr))
	return rc
}

// matchPrefix supports the "namespace:*" patterns the executor emits; a
// pattern without a trailing star matches exactly.
func matchPrefix(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}
