package cache

import (
	"context"
	"testing"

	"github.com/Domenick1991/gearbooking/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachable points at a port nothing listens on.
var unreachable = config.RedisConfig{Addr: "127.0.0.1:1", CommandTimeoutMs: 50}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	enabled := config.CacheConfig{Enabled: true}

	assert.Nil(t, Open(ctx, config.CacheConfig{}, unreachable, zap.NewNop()))

	mem := Open(ctx, enabled, config.RedisConfig{}, zap.NewNop())
	require.IsType(t, &MemoryCache{}, mem)
	require.NoError(t, mem.Close())

	rc := Open(ctx, enabled, unreachable, zap.NewNop())
	require.IsType(t, &RedisCache{}, rc, "a configured redis is kept even when down")
	require.NoError(t, rc.Close())
}

func TestOpenShared(t *testing.T) {
	ctx := context.Background()
	enabled := config.CacheConfig{Enabled: true}

	assert.Nil(t, OpenShared(ctx, config.CacheConfig{}, unreachable, zap.NewNop()))
	assert.Nil(t, OpenShared(ctx, enabled, config.RedisConfig{}, zap.NewNop()))

	rc := OpenShared(ctx, enabled, unreachable, zap.NewNop())
	require.IsType(t, &RedisCache{}, rc)
	require.NoError(t, rc.Close())
}
