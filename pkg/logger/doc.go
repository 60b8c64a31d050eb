// Package logger builds slog loggers with per-environment defaults and
// context-driven attributes.
//
// New creates a *slog.Logger whose handler is wrapped by LogHandlerDecorator.
// The decorator runs every registered ContextExtractor on each record, so
// request-scoped values such as the tenant ID or request ID appear in logs
// without being passed around explicitly:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "tenantkit"),
//		logger.WithContextExtractors(
//			tenant.LoggerExtractor(),
//			requestid.LoggerExtractor(),
//		),
//	)
//	log.InfoContext(ctx, "tenant resolved", logger.TenantHost(host))
//
// Attribute helpers (Error, TenantID, TenantHost, SubscriptionID, ...) keep
// key names consistent across packages. Error returns an empty attribute for
// nil errors, which slog omits.
package logger
