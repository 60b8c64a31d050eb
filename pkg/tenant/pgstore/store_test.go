package pgstore_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/migrations"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenant/pgstore"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("PG_URL")
	if url == "" {
		t.Skip("PG_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{URL: url, RetryAttempts: 1, MigrationsTable: "tenantkit_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.MigrateFS(ctx, pool, migrations.FS, cfg, slog.Default()))
	return pool
}

// uniqueHost keeps parallel test runs against one database apart.
func uniqueHost(label string) string {
	return label + "-" + tenant.NewID().Value()[:8] + ".example.com"
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := pgstore.New(nil)
	assert.ErrorIs(t, err, pgstore.ErrPoolNil)
}

func TestStore(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	store, err := pgstore.New(pool)
	require.NoError(t, err)

	host := uniqueHost("acme")
	acme := &tenant.Tenant{
		ID:     tenant.NewID(),
		Name:   "Acme",
		Hosts:  []string{host, "WWW." + host},
		PlanID: "pro",
		Active: true,
	}
	require.NoError(t, store.Create(ctx, acme))
	t.Cleanup(func() { _ = store.Delete(context.Background(), acme.ID) })

	t.Run("find by host", func(t *testing.T) {
		found, err := store.FindByHost(ctx, host)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, found[0].ID.Equal(acme.ID))
		assert.Equal(t, "pro", found[0].PlanID)
		assert.ElementsMatch(t, []string{host, "www." + host}, found[0].Hosts)
	})

	t.Run("unknown host", func(t *testing.T) {
		found, err := store.FindByHost(ctx, uniqueHost("nope"))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("host uniqueness is enforced", func(t *testing.T) {
		other := &tenant.Tenant{ID: tenant.NewID(), Name: "Other", Hosts: []string{host}, Active: true}
		err := store.Create(ctx, other)
		assert.ErrorIs(t, err, pgstore.ErrHostTaken)

		_, err = store.Get(ctx, other.ID)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound, "transaction must roll back")
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := store.Create(ctx, &tenant.Tenant{ID: acme.ID, Name: "Again"})
		assert.ErrorIs(t, err, tenant.ErrDuplicateTenant)
	})

	t.Run("add and remove hosts", func(t *testing.T) {
		extra := uniqueHost("extra")
		require.NoError(t, store.AddHosts(ctx, acme.ID, extra))

		got, err := store.Get(ctx, acme.ID)
		require.NoError(t, err)
		assert.Contains(t, got.Hosts, extra)

		require.NoError(t, store.RemoveHost(ctx, extra))
		found, err := store.FindByHost(ctx, extra)
		require.NoError(t, err)
		assert.Empty(t, found)

		assert.ErrorIs(t, store.AddHosts(ctx, tenant.NewID(), uniqueHost("orphan")), tenant.ErrTenantNotFound)
	})

	t.Run("provider resolution and active flag", func(t *testing.T) {
		provider, err := tenant.NewProvider(tenant.StaticHostExtractor(host), store)
		require.NoError(t, err)

		got, err := provider.Get(ctx)
		require.NoError(t, err)
		assert.True(t, got.ID.Equal(acme.ID))

		require.NoError(t, store.SetActive(ctx, acme.ID, false))
		t.Cleanup(func() { _ = store.SetActive(context.Background(), acme.ID, true) })

		_, err = provider.Get(ctx)
		assert.ErrorIs(t, err, tenant.ErrInactiveTenant)

		assert.ErrorIs(t, store.SetActive(ctx, tenant.NewID(), true), tenant.ErrTenantNotFound)
	})
}
