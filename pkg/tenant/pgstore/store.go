// Package pgstore is a PostgreSQL backed tenant.Store.
//
// Hosts live in their own table with the host as primary key, so the
// database refuses to map one host to two tenants. Schema: see the
// migrations package.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

var (
	// ErrHostTaken is returned when a host is already registered to a tenant.
	ErrHostTaken = errors.New("host is already registered to a tenant")

	// ErrPoolNil is returned when the store is created without a pool.
	ErrPoolNil = errors.New("pgstore: pool cannot be nil")
)

// Store implements tenant.Store on top of a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ tenant.Store = (*Store)(nil)

// New creates a store.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, ErrPoolNil
	}
	return &Store{pool: pool}, nil
}

const findByHostQuery = `
SELECT t.id::text, t.name, t.plan_id, t.active, t.created_at,
       coalesce(array_agg(all_hosts.host ORDER BY all_hosts.host) FILTER (WHERE all_hosts.host IS NOT NULL), '{}')
FROM tenant_hosts h
JOIN tenants t ON t.id = h.tenant_id
LEFT JOIN tenant_hosts all_hosts ON all_hosts.tenant_id = t.id
WHERE h.host = $1
GROUP BY t.id`

// FindByHost returns every tenant registered for host.
func (s *Store) FindByHost(ctx context.Context, host string) ([]*tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx, findByHostQuery, host)
	if err != nil {
		return nil, fmt.Errorf("find tenants by host: %w", err)
	}
	defer rows.Close()

	var result []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find tenants by host: %w", err)
	}
	return result, nil
}

// Get loads a tenant by id.
func (s *Store) Get(ctx context.Context, id tenant.ID) (*tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx, `
SELECT t.id::text, t.name, t.plan_id, t.active, t.created_at,
       coalesce(array_agg(h.host ORDER BY h.host) FILTER (WHERE h.host IS NOT NULL), '{}')
FROM tenants t
LEFT JOIN tenant_hosts h ON h.tenant_id = t.id
WHERE t.id = $1::uuid
GROUP BY t.id`, id.String())
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTenant)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// Create inserts a tenant together with its hosts in one transaction.
// Hosts are normalized before they are stored.
func (s *Store) Create(ctx context.Context, t *tenant.Tenant) error {
	if t == nil || t.ID.IsZero() {
		return fmt.Errorf("%w: tenant id is empty", tenant.ErrInvalidIdentifier)
	}

	hosts, err := normalizeHosts(t.Hosts)
	if err != nil {
		return err
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO tenants (id, name, plan_id, active, created_at)
VALUES ($1::uuid, $2, $3, $4, $5)`,
			t.ID.String(), t.Name, t.PlanID, t.Active, createdAt)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s", tenant.ErrDuplicateTenant, t.ID)
			}
			return fmt.Errorf("insert tenant: %w", err)
		}
		return insertHosts(ctx, tx, t.ID, hosts)
	})
}

// AddHosts registers additional hosts for an existing tenant.
func (s *Store) AddHosts(ctx context.Context, id tenant.ID, hosts ...string) error {
	normalized, err := normalizeHosts(hosts)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertHosts(ctx, tx, id, normalized)
	})
}

// RemoveHost unregisters a host. Unknown hosts are ignored.
func (s *Store) RemoveHost(ctx context.Context, host string) error {
	normalized, err := tenant.NormalizeHost(host)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM tenant_hosts WHERE host = $1`, normalized); err != nil {
		return fmt.Errorf("remove host: %w", err)
	}
	return nil
}

// SetActive toggles whether the tenant may be served.
func (s *Store) SetActive(ctx context.Context, id tenant.ID, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tenants SET active = $2 WHERE id = $1::uuid`, id.String(), active)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// Delete removes a tenant and, through the foreign key, its hosts.
func (s *Store) Delete(ctx context.Context, id tenant.ID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1::uuid`, id.String()); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}

func insertHosts(ctx context.Context, tx pgx.Tx, id tenant.ID, hosts []string) error {
	for _, host := range hosts {
		_, err := tx.Exec(ctx, `INSERT INTO tenant_hosts (host, tenant_id) VALUES ($1, $2::uuid)`, host, id.String())
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s", ErrHostTaken, host)
			}
			if pg.IsForeignKeyViolationError(err) {
				return tenant.ErrTenantNotFound
			}
			return fmt.Errorf("insert host %s: %w", host, err)
		}
	}
	return nil
}

func normalizeHosts(hosts []string) ([]string, error) {
	result := make([]string, 0, len(hosts))
	for _, h := range hosts {
		n, err := tenant.NormalizeHost(h)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func scanTenant(row pgx.CollectableRow) (*tenant.Tenant, error) {
	var (
		rawID string
		t     tenant.Tenant
	)
	if err := row.Scan(&rawID, &t.Name, &t.PlanID, &t.Active, &t.CreatedAt, &t.Hosts); err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}

	id, err := tenant.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}
