package subscription

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimStatus is the outcome of IdempotencyStore.Claim.
type ClaimStatus int

const (
	// ClaimAcquired means the caller now holds the lease and must Complete or Release it.
	ClaimAcquired ClaimStatus = iota
	// ClaimInProgress means another delivery holds an unexpired lease.
	ClaimInProgress
	// ClaimCompleted means the key was already processed.
	ClaimCompleted
)

// IdempotencyStore tracks subscriptions in two phases: a short processing
// lease taken by Claim, then a long-lived completion mark set by Complete.
// Only completed keys are skipped for good.
type IdempotencyStore interface {
	// Claim takes a processing lease on key for lease unless key is leased or completed.
	Claim(ctx context.Context, key string, lease time.Duration) (ClaimStatus, error)
	// Complete marks key as processed for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error
	// Release drops the lease so a later delivery can claim key again.
	Release(ctx context.Context, key string) error
}

type memoryClaim struct {
	done      bool
	expiresAt time.Time
}

// MemoryIdempotencyStore keeps claims in process memory.
// Claims are lost on restart and not shared between workers.
type MemoryIdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]memoryClaim
	now    func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		claims: make(map[string]memoryClaim),
		now:    time.Now,
	}
}

func (s *MemoryIdempotencyStore) Claim(_ context.Context, key string, lease time.Duration) (ClaimStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, ok := s.claims[key]; ok && now.Before(c.expiresAt) {
		if c.done {
			return ClaimCompleted, nil
		}
		return ClaimInProgress, nil
	}

	// expired entries are only dropped when their key is claimed again
	s.claims[key] = memoryClaim{expiresAt: now.Add(lease)}
	return ClaimAcquired, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	s.claims[key] = memoryClaim{done: true, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.claims[key]; ok && !c.done {
		delete(s.claims, key)
	}
	return nil
}

// DefaultRedisIdempotencyPrefix namespaces claims in a shared Redis.
const DefaultRedisIdempotencyPrefix = "subscription:processed:"

const (
	redisLeaseValue = "processing"
	redisDoneValue  = "done"
)

// releaseScript deletes the key only while it still holds a lease.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisIdempotencyStore shares claims between workers. Leases are taken
// with SET NX; completion overwrites the lease with a longer TTL.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisIdempotencyStore creates a Redis-backed store.
// An empty prefix uses DefaultRedisIdempotencyPrefix.
func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = DefaultRedisIdempotencyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, lease time.Duration) (ClaimStatus, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, redisLeaseValue, lease).Result()
	if err != nil {
		return ClaimInProgress, errors.Join(ErrIdempotencyStore, err)
	}
	if ok {
		return ClaimAcquired, nil
	}

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// expired between SET NX and GET; the next delivery can claim it
		return ClaimInProgress, nil
	case err != nil:
		return ClaimInProgress, errors.Join(ErrIdempotencyStore, err)
	case val == redisDoneValue:
		return ClaimCompleted, nil
	default:
		return ClaimInProgress, nil
	}
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, redisDoneValue, ttl).Err(); err != nil {
		return errors.Join(ErrIdempotencyStore, err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.prefix + key}, redisLeaseValue).Err(); err != nil {
		return errors.Join(ErrIdempotencyStore, err)
	}
	return nil
}
