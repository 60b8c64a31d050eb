package redis

import "errors"

var (
	ErrEmptyURL   = errors.New("redis: connection url is empty")
	ErrInvalidURL = errors.New("redis: invalid connection url")
	// ErrNotReady wraps the last ping error once the retry budget is spent.
	ErrNotReady  = errors.New("redis: server not ready")
	ErrUnhealthy = errors.New("redis: healthcheck failed")
)
