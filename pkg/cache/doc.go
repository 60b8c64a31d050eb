// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
//	c := cache.NewLRUCache[string, *tenant.Tenant](1000)
//	c.PutTTL("acme.example.com", t, 5*time.Minute)
//
//	if t, ok := c.Get("acme.example.com"); ok {
//		// hit
//	}
//
// When the cache is full the least recently used entry is evicted. Expired
// entries are dropped lazily on Get or when they reach the back of the list.
// SetEvictCallback observes every removal.
package cache
