package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/telecombase/internal/models"
)

func TestMemoryStore_Users(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	root, err := s.CreateUser(ctx, "root", []byte("h"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, root.Role)
	assert.True(t, root.Approved)

	bob, err := s.CreateUser(ctx, "bob", []byte("h"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, bob.Role)
	assert.False(t, bob.Approved)

	_, err = s.CreateUser(ctx, "bob", []byte("h"))
	assert.ErrorIs(t, err, ErrConflict)

	pending, err := s.ListPendingUsers(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.ID, pending[0].ID)

	// Only stale unapproved accounts are removed.
	n, err := s.DeletePendingBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "root", all[0].Username)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.SetUserApproved(ctx, bob.ID, true), ErrNotFound)
}

func TestMemoryStore_References(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateModel(ctx, models.Model{VendorID: 1, Name: "x"})
	assert.ErrorIs(t, err, ErrMissingReference)

	vid, err := s.CreateVendor(ctx, models.Vendor{Name: "Cisco"})
	require.NoError(t, err)
	mid, err := s.CreateModel(ctx, models.Model{VendorID: vid, Name: "ISR 4321", VendorName: "ignored"})
	require.NoError(t, err)
	lid, err := s.CreateLocation(ctx, models.Location{Name: "Main office"})
	require.NoError(t, err)

	did, err := s.CreateDevice(ctx, models.Device{ModelID: mid, LocationID: &lid, SerialNumber: "FDO1", Status: "active"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteVendor(ctx, vid), ErrInUse)
	assert.ErrorIs(t, s.DeleteModel(ctx, mid), ErrInUse)
	assert.ErrorIs(t, s.DeleteLocation(ctx, lid), ErrInUse)

	list, err := s.ListModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Cisco", list[0].VendorName)

	items, err := s.ListDevices(ctx, "cisco")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.DeviceListItem{
		ID: did, VendorName: "Cisco", ModelName: "ISR 4321", LocationName: "Main office",
		SerialNumber: "FDO1", Status: "active",
	}, items[0])

	require.NoError(t, s.DeleteDevice(ctx, did))
	require.NoError(t, s.DeleteLocation(ctx, lid))
	require.NoError(t, s.DeleteModel(ctx, mid))
	require.NoError(t, s.DeleteVendor(ctx, vid))
	assert.ErrorIs(t, s.DeleteVendor(ctx, vid), ErrNotFound)
}
