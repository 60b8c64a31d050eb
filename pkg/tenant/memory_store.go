package tenant

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a Store kept in process memory, used for tests, local
// development and seed-file deployments. It does not enforce host
// uniqueness so integrity violations surface as ErrResolutionConflict
// during resolution, exactly as they would with a misconfigured database.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[ID]*Tenant
	byHost  map[string][]ID
}

// NewMemoryStore creates a store pre-populated with tenants.
func NewMemoryStore(tenants ...*Tenant) (*MemoryStore, error) {
	s := &MemoryStore{
		tenants: make(map[ID]*Tenant),
		byHost:  make(map[string][]ID),
	}
	for _, t := range tenants {
		if err := s.Add(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a tenant. Hosts are normalized on the way in.
func (s *MemoryStore) Add(t *Tenant) error {
	if t == nil {
		return fmt.Errorf("%w: nil tenant", ErrInvalidIdentifier)
	}
	if t.ID.IsZero() {
		return fmt.Errorf("%w: tenant id is empty", ErrInvalidIdentifier)
	}

	stored := t.Clone()
	hosts := make([]string, 0, len(stored.Hosts))
	for _, h := range stored.Hosts {
		n, err := NormalizeHost(h)
		if err != nil {
			return fmt.Errorf("tenant %s: %w", t.ID, err)
		}
		hosts = append(hosts, n)
	}
	stored.Hosts = hosts

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[stored.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTenant, stored.ID)
	}
	s.tenants[stored.ID] = stored
	for _, h := range hosts {
		s.byHost[h] = append(s.byHost[h], stored.ID)
	}
	return nil
}

// Remove deletes a tenant and its host registrations.
func (s *MemoryStore) Remove(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return
	}
	delete(s.tenants, id)

	for _, h := range t.Hosts {
		ids := s.byHost[h][:0]
		for _, other := range s.byHost[h] {
			if !other.Equal(id) {
				ids = append(ids, other)
			}
		}
		if len(ids) == 0 {
			delete(s.byHost, h)
		} else {
			s.byHost[h] = ids
		}
	}
}

// FindByHost returns clones of every tenant registered for host.
func (s *MemoryStore) FindByHost(_ context.Context, host string) ([]*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byHost[host]
	if len(ids) == 0 {
		return nil, nil
	}

	result := make([]*Tenant, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.tenants[id].Clone())
	}
	return result, nil
}

// Len returns the number of registered tenants.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants)
}
