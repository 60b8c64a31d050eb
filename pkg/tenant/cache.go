package tenant

import (
	"context"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/cache"
)

// DefaultCacheSize is the default maximum number of hosts kept by the in-memory cache.
const DefaultCacheSize = 1000

// Cache stores resolved tenants keyed by normalized host.
type Cache interface {
	// Get retrieves a tenant by host. Expired entries are reported as misses.
	Get(ctx context.Context, host string) (*Tenant, bool)

	// Set stores a tenant for ttl.
	Set(ctx context.Context, host string, tenant *Tenant, ttl time.Duration) error

	// Delete evicts a host, typically after the tenant changed.
	Delete(ctx context.Context, host string) error

	// Close releases resources held by the cache.
	Close() error
}

// MemoryCache is a size-bounded LRU cache with per-entry TTL.
// Tenants are copied on the way in and out.
type MemoryCache struct {
	lru *cache.LRUCache[string, *Tenant]
}

// NewMemoryCache creates an LRU cache holding at most maxSize hosts.
// Non-positive sizes fall back to DefaultCacheSize.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &MemoryCache{lru: cache.NewLRUCache[string, *Tenant](maxSize)}
}

func (c *MemoryCache) Get(_ context.Context, host string) (*Tenant, bool) {
	tenant, ok := c.lru.Get(host)
	if !ok {
		return nil, false
	}
	return tenant.Clone(), true
}

func (c *MemoryCache) Set(_ context.Context, host string, tenant *Tenant, ttl time.Duration) error {
	if tenant == nil || ttl <= 0 {
		return nil
	}
	c.lru.PutTTL(host, tenant.Clone(), ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, host string) error {
	c.lru.Remove(host)
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.lru.Clear()
	return nil
}
