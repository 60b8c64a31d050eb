package subscription

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds webhook ingestion and consumer settings.
type Config struct {
	WebhookSecret      string        `env:"SUBSCRIPTION_WEBHOOK_SECRET"` // Empty disables signature checks.
	SignatureMaxAge    time.Duration `env:"SUBSCRIPTION_SIGNATURE_MAX_AGE" envDefault:"5m"`
	MaxBodySize        int64         `env:"SUBSCRIPTION_MAX_BODY_SIZE" envDefault:"1048576"`
	MaxRetries         int8          `env:"SUBSCRIPTION_MAX_RETRIES" envDefault:"5"`
	IdempotencyBackend string        `env:"SUBSCRIPTION_IDEMPOTENCY_BACKEND" envDefault:"memory"` // memory or redis
	ClaimTTL           time.Duration `env:"SUBSCRIPTION_CLAIM_TTL" envDefault:"24h"`
	LeaseTTL           time.Duration `env:"SUBSCRIPTION_LEASE_TTL" envDefault:"5m"`
}

// WebhookOptions translates the config into handler options.
func (c Config) WebhookOptions() []WebhookOption {
	return []WebhookOption{
		WithWebhookSecret(c.WebhookSecret),
		WithSignatureMaxAge(c.SignatureMaxAge),
		WithMaxBodySize(c.MaxBodySize),
	}
}

// IdempotencyStore builds the configured store. client may be nil unless
// the backend is redis.
func (c Config) IdempotencyStore(client redis.UniversalClient, prefix string) (IdempotencyStore, error) {
	switch c.IdempotencyBackend {
	case "", "memory":
		return NewMemoryIdempotencyStore(), nil
	case "redis":
		if client == nil {
			return nil, ErrIdempotencyStoreNil
		}
		return NewRedisIdempotencyStore(client, prefix), nil
	default:
		return nil, fmt.Errorf("%w: unknown idempotency backend %q", ErrIdempotencyStore, c.IdempotencyBackend)
	}
}
