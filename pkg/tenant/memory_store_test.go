package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("normalizes hosts on add", func(t *testing.T) {
		t.Parallel()

		a := newTenant("A", true, "Tenant-A.Example.com:443")
		store := newStore(t, a)

		found, err := store.FindByHost(context.Background(), "tenant-a.example.com")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, found[0].ID.Equal(a.ID))
		assert.Equal(t, []string{"tenant-a.example.com"}, found[0].Hosts)
	})

	t.Run("rejects invalid hosts and ids", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.NewMemoryStore(newTenant("A", true, "bad_host"))
		assert.ErrorIs(t, err, tenant.ErrInvalidHost)

		_, err = tenant.NewMemoryStore(&tenant.Tenant{Name: "no id"})
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)

		_, err = tenant.NewMemoryStore(nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		t.Parallel()

		a := newTenant("A", true, "a.example.com")
		store := newStore(t, a)
		assert.ErrorIs(t, store.Add(a), tenant.ErrDuplicateTenant)
	})

	t.Run("keeps duplicate hosts so conflicts surface", func(t *testing.T) {
		t.Parallel()

		store := newStore(t,
			newTenant("A", true, "shared.example.com"),
			newTenant("B", true, "shared.example.com"),
		)
		found, err := store.FindByHost(context.Background(), "shared.example.com")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("remove drops host registrations", func(t *testing.T) {
		t.Parallel()

		a := newTenant("A", true, "a.example.com", "shared.example.com")
		b := newTenant("B", true, "shared.example.com")
		store := newStore(t, a, b)

		store.Remove(a.ID)
		assert.Equal(t, 1, store.Len())

		found, err := store.FindByHost(context.Background(), "a.example.com")
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = store.FindByHost(context.Background(), "shared.example.com")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, found[0].ID.Equal(b.ID))

		store.Remove(a.ID)
	})

	t.Run("returned tenants are copies", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, newTenant("A", true, "a.example.com"))
		found, err := store.FindByHost(context.Background(), "a.example.com")
		require.NoError(t, err)
		found[0].Name = "mutated"

		found, err = store.FindByHost(context.Background(), "a.example.com")
		require.NoError(t, err)
		assert.Equal(t, "A", found[0].Name)
	})
}
