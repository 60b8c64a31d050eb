// Package ratelimiter provides token bucket rate limiting with memory and
// Redis storage and HTTP middleware.
//
// A bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request takes tokens; a request that cannot be
// covered is denied and consumes nothing.
//
//	cfg := config.MustLoad[ratelimiter.Config]()
//	store, err := cfg.Store(redisClient, "")
//	if err != nil {
//		return err
//	}
//	limiter, err := ratelimiter.NewBucket(store, cfg)
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByIP(resolver))).
//		Post("/hooks/subscriptions", hook.ServeHTTP)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response and Retry-After on 429s.
//
// MemoryStore keeps buckets per process and sweeps unused ones. RedisStore
// runs the refill-and-take step as a Lua script, so instances behind a load
// balancer share limits.
package ratelimiter
