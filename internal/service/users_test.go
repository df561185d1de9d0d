package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/repository"
)

func seedUsers(t *testing.T) (*repository.MemoryStore, *models.User, *models.User) {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	admin, err := store.CreateUser(ctx, "root", []byte("x"))
	require.NoError(t, err)
	user, err := store.CreateUser(ctx, "bob", []byte("x"))
	require.NoError(t, err)
	return store, admin, user
}

func TestUserService_ListAndApprove(t *testing.T) {
	store, _, bob := seedUsers(t)
	svc := NewUserService(store)
	ctx := context.Background()

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].Username)

	require.NoError(t, svc.Approve(ctx, bob.ID))
	pending, err = svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, svc.Approve(ctx, 999), repository.ErrNotFound)
}

func TestUserService_SetApproved(t *testing.T) {
	store, admin, bob := seedUsers(t)
	svc := NewUserService(store)
	ctx := context.Background()

	err := svc.SetApproved(ctx, admin.ID, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeCannotDisableAdmin, verr.Code)

	require.NoError(t, svc.SetApproved(ctx, admin.ID, true))
	require.NoError(t, svc.SetApproved(ctx, bob.ID, true))
	require.NoError(t, svc.SetApproved(ctx, bob.ID, false))

	got, err := store.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.Approved)

	assert.ErrorIs(t, svc.SetApproved(ctx, 999, true), repository.ErrNotFound)
}

func TestUserService_Delete(t *testing.T) {
	store, admin, bob := seedUsers(t)
	svc := NewUserService(store)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor string
		id    int64
		want  string
	}{
		{"self", "root", admin.ID, CodeCannotDeleteSelf},
		{"admin", "someone", admin.ID, CodeCannotDeleteAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, svc.Delete(ctx, tt.actor, tt.id), &verr)
			assert.Equal(t, tt.want, verr.Code)
		})
	}

	require.NoError(t, svc.Delete(ctx, "root", bob.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "root", bob.ID), repository.ErrNotFound)
}
