// Package tenant maps inbound requests to isolated tenant contexts.
//
// Resolution runs in three steps:
//
//  1. A HostExtractor reads the raw host of the current request from the
//     context (the middleware captures it with WithRequestInfo).
//  2. NormalizeHost folds case, strips the port and trailing dot, and
//     validates the name.
//  3. A Provider looks the host up in a Store and demands exactly one owner.
//
// The provider is the isolation boundary: a host claimed by two tenants is
// reported as ErrResolutionConflict and logged as an integrity violation,
// never resolved by picking one of the matches.
//
// # Usage
//
//	store, _ := tenant.NewMemoryStoreFromFile("tenants.yaml")
//	provider, _ := tenant.NewProvider(tenant.NewRequestHostExtractor(), store)
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(provider, tenant.WithSkipPaths("/health")))
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		t := tenant.MustFromContext(r.Context())
//		fmt.Fprintf(w, "hello %s", t.Name)
//	})
//
// # Identifiers
//
// ID wraps identity.UUID. NewID generates a random ID for provisioning,
// ParseID rehydrates stored IDs and fails with ErrInvalidIdentifier on
// malformed input.
//
// # Caching
//
// Caching is opt-in through WithCache. Without it every request resolves
// against the store, so tenant changes are visible immediately. MemoryCache
// is a per-process LRU, RedisCache shares entries between instances.
//
// # Errors
//
//   - ErrInvalidIdentifier: malformed tenant ID (400)
//   - ErrExtraction, ErrInvalidHost: no usable host in the request (400)
//   - ErrTenantNotFound: host is not registered (404)
//   - ErrInactiveTenant: tenant is disabled (403)
//   - ErrResolutionConflict: duplicate host registration (500, alert)
//
// None of these errors is transient; callers must not retry.
package tenant
