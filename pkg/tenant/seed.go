package tenant

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSeed is returned when a seed file cannot be decoded.
var ErrInvalidSeed = errors.New("invalid tenant seed file")

// seedFile is the YAML layout of a seed file:
//
//	tenants:
//	  - id: 0b0f5d3e-9c55-4d6f-8a53-5f6a9e1f3c21
//	    name: Acme
//	    hosts: [acme.example.com, www.acme.com]
//	    plan_id: pro
//	    active: true
type seedFile struct {
	Tenants []seedTenant `yaml:"tenants"`
}

type seedTenant struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Hosts  []string `yaml:"hosts"`
	PlanID string   `yaml:"plan_id"`
	Active *bool    `yaml:"active"`
}

// LoadSeed decodes tenants from YAML. Missing ids are generated and
// tenants are active unless stated otherwise.
func LoadSeed(r io.Reader) ([]*Tenant, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Join(ErrInvalidSeed, err)
	}

	now := time.Now().UTC()
	tenants := make([]*Tenant, 0, len(file.Tenants))
	for i, st := range file.Tenants {
		id := NewID()
		if st.ID != "" {
			parsed, err := ParseID(st.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: tenant #%d: %w", ErrInvalidSeed, i, err)
			}
			id = parsed
		}

		active := true
		if st.Active != nil {
			active = *st.Active
		}

		tenants = append(tenants, &Tenant{
			ID:        id,
			Name:      st.Name,
			Hosts:     st.Hosts,
			PlanID:    st.PlanID,
			Active:    active,
			CreatedAt: now,
		})
	}
	return tenants, nil
}

// NewMemoryStoreFromFile builds a MemoryStore from a YAML seed file.
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidSeed, err)
	}
	defer f.Close()

	tenants, err := LoadSeed(f)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(tenants...)
}
