package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces cached tenants in a shared Redis.
const DefaultRedisKeyPrefix = "tenant:host:"

// RedisCache shares resolved tenants between instances.
// The client is owned by the caller; Close does not close it.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a Redis-backed cache. An empty prefix uses DefaultRedisKeyPrefix.
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get treats Redis failures and undecodable entries as misses so the
// provider falls back to the store.
func (c *RedisCache) Get(ctx context.Context, host string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+host).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false
	}
	return &t, true
}

func (c *RedisCache) Set(ctx context.Context, host string, tenant *Tenant, ttl time.Duration) error {
	if tenant == nil || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(tenant)
	if err != nil {
		return errors.Join(ErrCacheWrite, err)
	}
	if err := c.client.Set(ctx, c.prefix+host, data, ttl).Err(); err != nil {
		return errors.Join(ErrCacheWrite, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, host string) error {
	if err := c.client.Del(ctx, c.prefix+host).Err(); err != nil {
		return errors.Join(ErrCacheWrite, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return nil
}
