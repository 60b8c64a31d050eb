package subscription

import "errors"

var (
	ErrMissingSubscriptionID = errors.New("subscription id missing from payload")
	ErrPublisherNil          = errors.New("subscription publisher is required")
	ErrProcessFuncNil        = errors.New("subscription process function is required")
	ErrIdempotencyStoreNil   = errors.New("subscription idempotency store is required")
	ErrFailedToPublish       = errors.New("failed to publish subscription message")
	ErrFailedToProcess       = errors.New("failed to process subscription message")
	ErrIdempotencyStore      = errors.New("subscription idempotency store failure")
	ErrClaimInProgress       = errors.New("subscription is being processed by another delivery")
	ErrInvalidWebhookBody    = errors.New("invalid subscription webhook body")
)
