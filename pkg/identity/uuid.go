package identity

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// canonicalLength is the length of the 8-4-4-4-12 textual form.
const canonicalLength = 36

// UUID is a 128-bit identifier rendered in its canonical lowercase form.
// The zero value is the nil UUID.
type UUID struct {
	value uuid.UUID
}

// New generates a random (version 4) UUID.
func New() UUID {
	return UUID{value: uuid.New()}
}

// Parse builds a UUID from its canonical textual form.
// Upper-case hex digits are accepted and folded to lower case.
func Parse(s string) (UUID, error) {
	if !isCanonical(s) {
		return UUID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return UUID{value: v}, nil
}

// MustParse is like Parse but panics on invalid input.
// Use it for constants and tests only.
func MustParse(s string) UUID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromUUID wraps an existing google/uuid value.
func FromUUID(v uuid.UUID) UUID {
	return UUID{value: v}
}

// String returns the canonical textual form.
func (u UUID) String() string {
	return u.value.String()
}

// Equal reports whether both identifiers have the same canonical form.
func (u UUID) Equal(other UUID) bool {
	return u.value == other.value
}

// IsZero reports whether u is the nil UUID.
func (u UUID) IsZero() bool {
	return u.value == uuid.Nil
}

// Raw exposes the underlying google/uuid value.
func (u UUID) Raw() uuid.UUID {
	return u.value
}

func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.value.String()), nil
}

func (u *UUID) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Value implements driver.Valuer, storing the canonical textual form.
func (u UUID) Value() (driver.Value, error) {
	return u.value.String(), nil
}

// Scan implements sql.Scanner. It accepts the textual form and the 16-byte
// binary form returned by some drivers.
func (u *UUID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return u.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 16 {
			raw, err := uuid.FromBytes(v)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
			}
			u.value = raw
			return nil
		}
		return u.UnmarshalText(v)
	case [16]byte:
		u.value = uuid.UUID(v)
		return nil
	case nil:
		return fmt.Errorf("%w: null value", ErrInvalidIdentifier)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidIdentifier, src)
	}
}

// isCanonical checks the 8-4-4-4-12 hex layout. google/uuid alone is more
// lenient (braces, urn prefix, no hyphens).
func isCanonical(s string) bool {
	if len(s) != canonicalLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !strings.ContainsRune("0123456789abcdefABCDEF", rune(c)) {
				return false
			}
		}
	}
	return true
}
