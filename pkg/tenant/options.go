package tenant

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrorHandler writes the response for a failed tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*middlewareConfig)

// WithErrorHandler replaces the default status mapping.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution (health checks, webhooks).
func WithSkipPaths(paths ...string) Option {
	return func(c *middlewareConfig) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithLogger sets the middleware logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *middlewareConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// StatusCode maps resolution errors to HTTP status codes.
// None of them is transient, so none should be retried by clients.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInactiveTenant), errors.Is(err, ErrNoTenantInContext):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status := StatusCode(err)
	switch status {
	case http.StatusBadRequest:
		http.Error(w, "Invalid tenant host", status)
	case http.StatusNotFound:
		http.Error(w, "Unknown tenant", status)
	case http.StatusForbidden:
		http.Error(w, "Tenant is not available", status)
	default:
		http.Error(w, "Internal server error", status)
	}
}
