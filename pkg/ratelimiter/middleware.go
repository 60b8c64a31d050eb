package ratelimiter

import (
	"hash/fnv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/clientip"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// maxKeyLength is the maximum allowed length for a rate limit key
// to prevent excessively long storage keys.
const maxKeyLength = 64

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(r *http.Request) string

// ByIP keys requests by the client address the resolver reports.
func ByIP(res *clientip.Resolver) KeyFunc {
	return func(r *http.Request) string {
		if ip := res.IP(r); ip != "" {
			return "ip:" + ip
		}
		return ""
	}
}

// Composite combines multiple key functions into one.
// Long keys (>64 chars) are hashed using FNV-1a for storage efficiency.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		if len(parts) == 1 && len(parts[0]) <= maxKeyLength {
			return parts[0]
		}

		combined := strings.Join(parts, ":")

		if len(combined) > maxKeyLength {
			h := fnv.New64a()
			h.Write([]byte(combined))
			// base36 keeps it to ~13 chars
			return strconv.FormatUint(h.Sum64(), 36)
		}

		return combined
	}
}

// ErrorResponder writes the response for a denied or failed check.
// err is non-nil when the limiter itself failed.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, result *Result, err error)

func defaultErrorResponder(w http.ResponseWriter, _ *http.Request, result *Result, err error) {
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	} else {
		w.Header().Set("Retry-After", "1")
	}
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

type middlewareOptions struct {
	logger    *slog.Logger
	responder ErrorResponder
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareOptions)

// WithLogger sets the logger for denied and failed checks.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(o *middlewareOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorResponder replaces the 429/500 responses.
func WithErrorResponder(fn ErrorResponder) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.responder = fn
		}
	}
}

// Middleware creates an HTTP middleware for rate limiting.
// Requests whose key is empty share a single bucket.
func Middleware(limiter RateLimiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := &middlewareOptions{
		logger:    slog.Default(),
		responder: defaultErrorResponder,
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger.With(logger.Component("ratelimiter"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.ErrorContext(r.Context(), "rate limit check failed", logger.Error(err))
				o.responder(w, r, nil, err)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				log.DebugContext(r.Context(), "rate limit exceeded", slog.String("key", key))
				o.responder(w, r, result, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
