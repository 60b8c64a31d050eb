// Package identity provides the UUID value object used as the base for
// domain-specific identifiers such as tenant IDs.
//
// A UUID is immutable once constructed and compared by value. Parsing is
// strict: only the canonical 36-character textual form is accepted, so a
// malformed identifier is rejected at the boundary instead of being coerced.
//
// # Usage
//
//	id := identity.New()
//	parsed, err := identity.Parse("8d3f4a2e-5b1c-4c7a-9f0e-2a6b1d3c4e5f")
//	if errors.Is(err, identity.ErrInvalidIdentifier) {
//		// reject input
//	}
//	parsed.String() // "8d3f4a2e-5b1c-4c7a-9f0e-2a6b1d3c4e5f"
//
// UUID implements encoding.TextMarshaler, encoding.TextUnmarshaler,
// sql.Scanner and driver.Valuer, so it can be stored in JSON, YAML and
// PostgreSQL columns directly.
package identity
