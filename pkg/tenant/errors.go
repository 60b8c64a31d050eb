package tenant

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
)

var (
	// ErrInvalidIdentifier is returned when a tenant ID is not a valid UUID.
	// It matches identity.ErrInvalidIdentifier with errors.Is.
	ErrInvalidIdentifier = fmt.Errorf("invalid tenant identifier: %w", identity.ErrInvalidIdentifier)

	// ErrExtraction is returned when no usable host is available in the request context.
	ErrExtraction = errors.New("tenant host extraction failed")

	// ErrInvalidHost is returned when the extracted host is not a valid hostname.
	ErrInvalidHost = fmt.Errorf("%w: invalid host", ErrExtraction)

	// ErrTenantNotFound is returned when no tenant is registered for the host.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrResolutionConflict is returned when more than one tenant claims the
	// same host. It signals a data-integrity violation and must never be
	// resolved by picking one of the matches.
	ErrResolutionConflict = errors.New("tenant resolution conflict")

	// ErrInactiveTenant is returned when the resolved tenant is disabled.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrDuplicateTenant is returned by stores when a tenant ID is registered twice.
	ErrDuplicateTenant = errors.New("tenant already exists")
)

var (
	// ErrExtractorNil is returned when a provider is built without a host extractor.
	ErrExtractorNil = errors.New("tenant host extractor cannot be nil")

	// ErrStoreNil is returned when a provider is built without a store.
	ErrStoreNil = errors.New("tenant store cannot be nil")
)

// ErrCacheWrite is returned when a cache backend fails to store or evict an entry.
var ErrCacheWrite = errors.New("tenant cache write failed")
