package tenant

import (
	"context"
	"slices"
	"time"
)

// Tenant is an isolated customer context. Hosts lists every normalized host
// name the tenant is reachable on; a host belongs to at most one tenant.
type Tenant struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Hosts     []string  `json:"hosts"`
	PlanID    string    `json:"plan_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// HasHost reports whether host (normalized) is registered for the tenant.
func (t *Tenant) HasHost(host string) bool {
	if t == nil {
		return false
	}
	for _, h := range t.Hosts {
		if n, err := NormalizeHost(h); err == nil && n == host {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached or stored values are never shared with callers.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	c.Hosts = slices.Clone(t.Hosts)
	return &c
}

// Store looks tenants up by host. FindByHost returns every tenant that has
// host registered: an empty result means no tenant, more than one is an
// integrity violation the caller must surface. Implementations may return
// ErrTenantNotFound instead of an empty result.
type Store interface {
	FindByHost(ctx context.Context, host string) ([]*Tenant, error)
}

// Provider resolves the tenant addressed by the current request.
type Provider interface {
	// Get returns the tenant for the host carried by ctx.
	Get(ctx context.Context) (*Tenant, error)
}
