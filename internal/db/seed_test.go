package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/repository"
)

func TestSeed_EmptyStore(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store, zap.NewNop()))
	// A second run changes nothing.
	require.NoError(t, Seed(ctx, store, zap.NewNop()))

	vendors, err := store.ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Cisco", vendors[0].Name)
	assert.Equal(t, "US", vendors[0].Country)

	locations, err := store.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, models.Location{ID: locations[0].ID, Name: "Main office", Note: "Default location"}, locations[0])

	list, err := store.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vendors[0].ID, list[0].VendorID)
	assert.Equal(t, "ISR 4321", list[0].Name)
	assert.Equal(t, "router", list[0].DeviceType)
}

func TestSeed_UsesOldestVendor(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	first, err := store.CreateVendor(ctx, models.Vendor{Name: "Zyxel"})
	require.NoError(t, err)
	_, err = store.CreateVendor(ctx, models.Vendor{Name: "Arista"})
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, store, zap.NewNop()))

	vendors, err := store.ListVendors(ctx)
	require.NoError(t, err)
	assert.Len(t, vendors, 2, "existing vendors are kept as is")

	list, err := store.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0].VendorID)
}

type failingSeedStore struct {
	SeedStore
}

func (failingSeedStore) ListVendors(context.Context) ([]models.Vendor, error) {
	return nil, errors.New("relation \"vendors\" does not exist")
}

func TestSeed_Error(t *testing.T) {
	err := Seed(context.Background(), failingSeedStore{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed vendors")
}
