// Package requestid assigns a correlation id to every HTTP request.
//
// The middleware reuses a well-formed incoming X-Request-ID (letters, digits,
// '-' and '_', at most 128 bytes) and otherwise generates a UUID. The id is
// stored in the request context and echoed in the response header.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
// LoggerExtractor plugs into logger.WithContextExtractors so that every record
// logged with a request context carries request_id.
package requestid
