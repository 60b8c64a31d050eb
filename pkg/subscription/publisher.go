package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/queue"
)

const (
	// QueueName is the queue subscription messages are published to.
	QueueName = "subscriptions"
	// CreatedTaskName identifies CreatedMessage tasks.
	CreatedTaskName = "subscription.created"
)

// Enqueuer is the part of queue.Enqueuer the publisher needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error)
}

// Publisher hands subscription messages to the task queue.
type Publisher struct {
	enqueuer Enqueuer
	opts     []queue.EnqueueOption
}

// NewPublisher creates a Publisher. Extra options apply to every message,
// after the queue and task name.
func NewPublisher(enqueuer Enqueuer, opts ...queue.EnqueueOption) *Publisher {
	return &Publisher{
		enqueuer: enqueuer,
		opts: append([]queue.EnqueueOption{
			queue.WithQueue(QueueName),
			queue.WithTaskName(CreatedTaskName),
		}, opts...),
	}
}

// PublishCreated enqueues msg and returns the task id.
func (p *Publisher) PublishCreated(ctx context.Context, msg CreatedMessage) (uuid.UUID, error) {
	if p == nil || p.enqueuer == nil {
		return uuid.Nil, ErrPublisherNil
	}

	id, err := p.enqueuer.Enqueue(ctx, msg, p.opts...)
	if err != nil {
		return uuid.Nil, errors.Join(ErrFailedToPublish, fmt.Errorf("queue %q: %w", QueueName, err))
	}
	return id, nil
}
