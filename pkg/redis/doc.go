// Package redis connects to Redis with go-redis/v9. The client backs the
// shared tenant cache (tenant.RedisCache) and the subscription idempotency
// store, which is why Config carries a KeyPrefix for namespacing.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	cache := tenant.NewRedisCache(client, cfg.KeyPrefix+"tenant:host:")
package redis
