package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// Middleware resolves the tenant for every request and stores it in the
// request context. Requests that cannot be mapped to exactly one tenant are
// rejected; there is no tenant-less fallthrough.
func Middleware(provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r.URL.Path, cfg.skipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithRequestInfo(r.Context(), RequestInfoFromHTTP(r))

			t, err := provider.Get(ctx)
			if err != nil {
				if StatusCode(err) == http.StatusInternalServerError {
					cfg.logger.ErrorContext(ctx, "tenant resolution failed",
						logger.Component("tenant"),
						logger.TenantHost(r.Host),
						slog.Bool("integrity_violation", errors.Is(err, ErrResolutionConflict)),
						logger.Error(err))
				} else {
					cfg.logger.DebugContext(ctx, "tenant rejected",
						logger.TenantHost(r.Host),
						logger.Error(err))
				}
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(ctx, t)))
		})
	}
}

// RequireTenant rejects requests that reach a handler without a tenant,
// e.g. when a route group was mounted outside Middleware by mistake.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// skipped matches whole path segments: "/hooks" covers "/hooks" and
// "/hooks/x" but not "/hooksettings".
func skipped(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
