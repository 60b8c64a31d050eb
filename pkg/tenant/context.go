package tenant

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithTenant stores the resolved tenant in ctx.
func WithTenant(ctx context.Context, tenant *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, tenant)
}

// FromContext returns the tenant resolved for the current request.
func FromContext(ctx context.Context) (*Tenant, bool) {
	tenant, ok := ctx.Value(contextKey{}).(*Tenant)
	return tenant, ok && tenant != nil
}

// IDFromContext returns only the tenant ID, the value downstream queries scope by.
func IDFromContext(ctx context.Context) (ID, bool) {
	tenant, ok := FromContext(ctx)
	if !ok {
		return ID{}, false
	}
	return tenant.ID, true
}

// MustFromContext panics if no tenant is found. Use only in handlers
// mounted behind Middleware or RequireTenant.
func MustFromContext(ctx context.Context) *Tenant {
	tenant, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return tenant
}

// LoggerExtractor enriches log records with the tenant ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
