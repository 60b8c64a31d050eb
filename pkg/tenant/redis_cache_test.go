package tenant_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisCache(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()

	prefix := "test:" + tenant.NewID().Value() + ":"
	cache := tenant.NewRedisCache(client, prefix)
	t.Cleanup(func() { _ = cache.Close() })

	a := newTenant("A", true, "a.example.com")
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Second)
	require.NoError(t, cache.Set(ctx, "a.example.com", a, time.Minute))

	got, ok := cache.Get(ctx, "a.example.com")
	require.True(t, ok)
	assert.True(t, got.ID.Equal(a.ID))
	assert.Equal(t, a.Hosts, got.Hosts)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	ttl, err := client.TTL(ctx, prefix+"a.example.com").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Delete(ctx, "a.example.com"))
	_, ok = cache.Get(ctx, "a.example.com")
	assert.False(t, ok)

	require.NoError(t, client.Set(ctx, prefix+"broken", "{", time.Minute).Err())
	_, ok = cache.Get(ctx, "broken")
	assert.False(t, ok)
}
