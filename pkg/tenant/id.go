package tenant

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
)

// ID identifies a tenant. It wraps identity.UUID so the tenant domain can
// evolve its identifier rules without inheriting the whole UUID surface.
type ID struct {
	uuid identity.UUID
}

// NewID generates a random tenant ID. Used when provisioning a tenant.
func NewID() ID {
	return ID{uuid: identity.New()}
}

// ParseID rehydrates a tenant ID from its textual form.
// Returns ErrInvalidIdentifier when s is not a canonical UUID.
func ParseID(s string) (ID, error) {
	u, err := identity.Parse(s)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidIdentifier) {
			return ID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
		}
		return ID{}, err
	}
	return ID{uuid: u}, nil
}

// MustParseID panics if s is not a valid tenant ID.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IDFromUUID wraps an already validated identity.UUID.
func IDFromUUID(u identity.UUID) ID {
	return ID{uuid: u}
}

// Value returns the canonical string form.
func (id ID) Value() string {
	return id.uuid.String()
}

func (id ID) String() string {
	return id.uuid.String()
}

// Equal compares canonical forms.
func (id ID) Equal(other ID) bool {
	return id.uuid.Equal(other.uuid)
}

func (id ID) IsZero() bool {
	return id.uuid.IsZero()
}

// UUID returns the wrapped base identifier.
func (id ID) UUID() identity.UUID {
	return id.uuid
}

func (id ID) MarshalText() ([]byte, error) {
	return id.uuid.MarshalText()
}

func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
