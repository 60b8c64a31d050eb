package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenant/mongostore"
)

func setupDatabase(t *testing.T) *driver.Database {
	t.Helper()

	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	db, err := mongo.ConnectDatabase(ctx, mongo.Config{
		URL:            url,
		Database:       "tenantkit_test",
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	return db
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := mongostore.New(nil, "")
	assert.ErrorIs(t, err, mongostore.ErrDatabaseNil)
}

func TestStore(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	collection := "tenants_" + tenant.NewID().Value()[:8]
	store, err := mongostore.New(db, collection)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Collection(collection).Drop(context.Background()) })
	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.EnsureIndexes(ctx))

	acme := &tenant.Tenant{
		ID:     tenant.NewID(),
		Name:   "Acme",
		Hosts:  []string{"acme.example.com", "WWW.ACME.COM."},
		PlanID: "pro",
		Active: true,
	}
	require.NoError(t, store.Create(ctx, acme))

	t.Run("find by host", func(t *testing.T) {
		found, err := store.FindByHost(ctx, "www.acme.com")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, found[0].ID.Equal(acme.ID))
		assert.Equal(t, []string{"acme.example.com", "www.acme.com"}, found[0].Hosts)
	})

	t.Run("unknown host", func(t *testing.T) {
		found, err := store.FindByHost(ctx, "nope.example.com")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("host uniqueness is enforced", func(t *testing.T) {
		err := store.Create(ctx, &tenant.Tenant{ID: tenant.NewID(), Name: "Other", Hosts: []string{"acme.example.com"}})
		assert.ErrorIs(t, err, mongostore.ErrHostTaken)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := store.Create(ctx, &tenant.Tenant{ID: acme.ID, Name: "Again", Hosts: []string{"again.example.com"}})
		assert.ErrorIs(t, err, tenant.ErrDuplicateTenant)
	})

	t.Run("add and remove hosts", func(t *testing.T) {
		require.NoError(t, store.AddHosts(ctx, acme.ID, "extra.example.com"))
		got, err := store.Get(ctx, acme.ID)
		require.NoError(t, err)
		assert.Contains(t, got.Hosts, "extra.example.com")

		require.NoError(t, store.RemoveHost(ctx, "extra.example.com"))
		found, err := store.FindByHost(ctx, "extra.example.com")
		require.NoError(t, err)
		assert.Empty(t, found)

		assert.ErrorIs(t, store.AddHosts(ctx, tenant.NewID(), "orphan.example.com"), tenant.ErrTenantNotFound)
	})

	t.Run("provider resolution and active flag", func(t *testing.T) {
		provider, err := tenant.NewProvider(tenant.StaticHostExtractor("ACME.example.com"), store)
		require.NoError(t, err)

		got, err := provider.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)

		require.NoError(t, store.SetActive(ctx, acme.ID, false))
		_, err = provider.Get(ctx)
		assert.ErrorIs(t, err, tenant.ErrInactiveTenant)
	})

	t.Run("get and delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, acme.ID))
		_, err := store.Get(ctx, acme.ID)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}
