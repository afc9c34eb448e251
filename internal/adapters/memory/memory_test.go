package memory

import (
	"context"
	"testing"
	"time"

	"web-larek/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveLoadIsolated(t *testing.T) {
	store := NewSessionStore(time.Hour)
	ctx := context.Background()

	state := domain.NewAppState()
	state.SetCatalog([]domain.ProductServer{{ID: "p1", Price: domain.Price(1)}})
	require.NoError(t, store.Save(ctx, "s1", state))

	state.Catalog[0].Title = "mutated after save"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Catalog[0].Title)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewAppState()))
	require.NoError(t, store.Save(ctx, "s2", domain.NewAppState()))

	now = now.Add(2 * time.Minute)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.NewAppState(), loaded)
	assert.Equal(t, 1, store.Sweep(), "s1 was dropped on Load, only s2 remains to sweep")
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(0)
	ctx := context.Background()
	s := domain.NewAppState()
	s.Order = &domain.OrderFormData{Payment: domain.PaymentCash}
	require.NoError(t, store.Save(ctx, "s1", s))

	require.NoError(t, store.Delete(ctx, "s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Order)
}

func TestCatalogCache(t *testing.T) {
	cache := NewCatalogCache()
	ctx := context.Background()

	_, ok, _ := cache.Get(ctx)
	assert.False(t, ok)

	in := []domain.ProductServer{{ID: "p1"}}
	require.NoError(t, cache.Set(ctx, in))
	in[0].ID = "changed"

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p1", got[0].ID)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, _ = cache.Get(ctx)
	assert.False(t, ok)
}
