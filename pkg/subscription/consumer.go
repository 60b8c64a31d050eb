package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/queue"
)

const (
	// DefaultClaimTTL is how long a processed subscription id is remembered.
	DefaultClaimTTL = 24 * time.Hour
	// DefaultLeaseTTL bounds a single processing attempt. It matches the
	// queue worker's default lock timeout.
	DefaultLeaseTTL = 5 * time.Minute
)

// ProcessFunc applies a subscription-created event to the application.
type ProcessFunc func(ctx context.Context, msg CreatedMessage) error

// Consumer processes CreatedMessage tasks at most once per subscription id,
// given at-least-once delivery from the queue.
type Consumer struct {
	process  ProcessFunc
	store    IdempotencyStore
	claimTTL time.Duration
	leaseTTL time.Duration
	logger   *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithIdempotencyStore replaces the default in-memory store.
func WithIdempotencyStore(store IdempotencyStore) ConsumerOption {
	return func(c *Consumer) {
		c.store = store
	}
}

// WithClaimTTL sets how long processed ids are remembered.
func WithClaimTTL(ttl time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if ttl > 0 {
			c.claimTTL = ttl
		}
	}
}

// WithLeaseTTL sets how long a processing attempt holds its claim.
func WithLeaseTTL(ttl time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if ttl > 0 {
			c.leaseTTL = ttl
		}
	}
}

// WithConsumerLogger sets the logger.
func WithConsumerLogger(log *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if log != nil {
			c.logger = log
		}
	}
}

func NewConsumer(process ProcessFunc, opts ...ConsumerOption) (*Consumer, error) {
	if process == nil {
		return nil, ErrProcessFuncNil
	}

	c := &Consumer{
		process:  process,
		store:    NewMemoryIdempotencyStore(),
		claimTTL: DefaultClaimTTL,
		leaseTTL: DefaultLeaseTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		return nil, ErrIdempotencyStoreNil
	}

	c.logger = c.logger.With(logger.Component("subscription.consumer"))
	return c, nil
}

// Handler returns the queue handler for CreatedTaskName tasks.
func (c *Consumer) Handler() queue.Handler {
	return queue.NewNamedTaskHandler(CreatedTaskName, c.Handle)
}

// Handle leases the subscription id, runs the process function and marks
// the id completed. A failed or panicking run releases the lease so the
// queue retry can process it again. A delivery that finds another attempt
// in flight fails with ErrClaimInProgress and is retried later.
func (c *Consumer) Handle(ctx context.Context, msg CreatedMessage) error {
	id, ok := msg.SubscriptionID()
	if !ok {
		return ErrMissingSubscriptionID
	}
	log := c.logger.With(logger.SubscriptionID(id))

	status, err := c.store.Claim(ctx, id, c.leaseTTL)
	if err != nil {
		return err
	}
	switch status {
	case ClaimCompleted:
		log.InfoContext(ctx, "duplicate subscription delivery skipped")
		return nil
	case ClaimInProgress:
		log.InfoContext(ctx, "subscription delivery already in progress")
		return fmt.Errorf("%w: %s", ErrClaimInProgress, id)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = c.release(ctx, log, id)
			panic(r)
		}
	}()

	if err := c.process(ctx, msg); err != nil {
		if rerr := c.release(ctx, log, id); rerr != nil {
			return errors.Join(ErrFailedToProcess, err, rerr)
		}
		return errors.Join(ErrFailedToProcess, fmt.Errorf("subscription %s: %w", id, err))
	}

	if err := c.store.Complete(ctx, id, c.claimTTL); err != nil {
		// the work is done; the lease expiry allows at most a repeat delivery
		log.ErrorContext(ctx, "failed to mark subscription completed", logger.Error(err))
		return nil
	}

	log.InfoContext(ctx, "subscription processed")
	return nil
}

func (c *Consumer) release(ctx context.Context, log *slog.Logger, id string) error {
	// the handler context may already be past its deadline
	ctx = context.WithoutCancel(ctx)
	if err := c.store.Release(ctx, id); err != nil {
		log.ErrorContext(ctx, "failed to release subscription claim", logger.Error(err))
		return err
	}
	return nil
}
