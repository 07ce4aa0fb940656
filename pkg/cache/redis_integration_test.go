//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/pkg/cache"
	"github.com/edmunds-dev/edmunds/pkg/redis"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_GetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newTestRedisClient(t)

	t.Run("missing key", func(t *testing.T) {
		c := cache.NewRedis(client, cache.WithPrefix[string]("it-miss"))
		_, err := c.Get(ctx, "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("struct value", func(t *testing.T) {
		type principal struct {
			ID    string   `json:"id"`
			Roles []string `json:"roles"`
		}
		c := cache.NewRedis(client, cache.WithPrefix[principal]("it-struct"))

		require.NoError(t, c.Set(ctx, "u1", principal{ID: "u1", Roles: []string{"admin"}}, time.Minute))
		got, err := c.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"admin"}, got.Roles)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		c := cache.NewRedis(client, cache.WithPrefix[int]("it-ttl"), cache.WithRedisTTL[int](30*time.Second))
		require.NoError(t, c.Set(ctx, "k", 1, 0))

		ttl, err := client.TTL(ctx, "it-ttl:k").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 25*time.Second)
	})

	t.Run("expired key", func(t *testing.T) {
		c := cache.NewRedis(client, cache.WithPrefix[int]("it-exp"))
		require.NoError(t, c.Set(ctx, "k", 1, 50*time.Millisecond))
		time.Sleep(150 * time.Millisecond)

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		c := cache.NewRedis(client, cache.WithPrefix[int]("it-del"))
		require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
		require.NoError(t, c.Delete(ctx, "k"))
		require.NoError(t, c.Delete(ctx, "k"))

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("prefixes are isolated", func(t *testing.T) {
		a := cache.NewRedis(client, cache.WithPrefix[string]("it-a"))
		b := cache.NewRedis(client, cache.WithPrefix[string]("it-b"))
		require.NoError(t, a.Set(ctx, "k", "a", time.Minute))

		_, err := b.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}
