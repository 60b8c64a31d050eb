package ratelimiter

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store builds the backend named by Backend. The redis client is only
// required for the redis backend. The caller closes a returned MemoryStore.
func (c Config) Store(client redis.UniversalClient, prefix string) (Store, error) {
	switch c.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("%w: redis backend requires a client", ErrInvalidConfig)
		}
		return NewRedisStore(client, prefix), nil
	default:
		return nil, fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Backend)
	}
}
