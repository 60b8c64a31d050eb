package subscription_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/subscription"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryIdempotencyStore()

	status, err := store.Claim(ctx, "sub_1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimAcquired, status)

	status, err = store.Claim(ctx, "sub_1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimInProgress, status)

	require.NoError(t, store.Release(ctx, "sub_1"))
	status, err = store.Claim(ctx, "sub_1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimAcquired, status)

	require.NoError(t, store.Complete(ctx, "sub_1", time.Hour))
	status, err = store.Claim(ctx, "sub_1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimCompleted, status)

	require.NoError(t, store.Release(ctx, "sub_1"))
	status, err = store.Claim(ctx, "sub_1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimCompleted, status, "release must not undo completion")

	status, err = store.Claim(ctx, "sub_2", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimAcquired, status)
	time.Sleep(20 * time.Millisecond)
	status, err = store.Claim(ctx, "sub_2", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimAcquired, status, "expired lease must be reclaimable")
}

func TestMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryIdempotencyStore()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := store.Claim(context.Background(), "sub_race", time.Hour)
			assert.NoError(t, err)
			if status == subscription.ClaimAcquired {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisIdempotencyStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"
	store := subscription.NewRedisIdempotencyStore(client, prefix)
	t.Cleanup(func() { _ = client.Del(ctx, prefix+"sub_1").Err() })

	status, err := store.Claim(ctx, "sub_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimAcquired, status)

	status, err = store.Claim(ctx, "sub_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimInProgress, status)

	require.NoError(t, store.Release(ctx, "sub_1"))
	status, err = store.Claim(ctx, "sub_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimAcquired, status)

	require.NoError(t, store.Complete(ctx, "sub_1", time.Minute))
	require.NoError(t, store.Release(ctx, "sub_1"))
	status, err = store.Claim(ctx, "sub_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, subscription.ClaimCompleted, status)
}

func TestConfig_IdempotencyStore(t *testing.T) {
	t.Parallel()

	store, err := subscription.Config{}.IdempotencyStore(nil, "")
	require.NoError(t, err)
	assert.IsType(t, &subscription.MemoryIdempotencyStore{}, store)

	_, err = subscription.Config{IdempotencyBackend: "redis"}.IdempotencyStore(nil, "")
	assert.ErrorIs(t, err, subscription.ErrIdempotencyStoreNil)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })
	store, err = subscription.Config{IdempotencyBackend: "redis"}.IdempotencyStore(client, "")
	require.NoError(t, err)
	assert.IsType(t, &subscription.RedisIdempotencyStore{}, store)

	_, err = subscription.Config{IdempotencyBackend: "etcd"}.IdempotencyStore(nil, "")
	assert.ErrorIs(t, err, subscription.ErrIdempotencyStore)
}
