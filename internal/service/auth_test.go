package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/telecombase/internal/auth"
	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/repository"
)

type mockAuthRepo struct {
	CreateUserFunc        func(ctx context.Context, username string, hash []byte) (*models.User, error)
	GetUserByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
}

func (m *mockAuthRepo) CreateUser(ctx context.Context, username string, hash []byte) (*models.User, error) {
	return m.CreateUserFunc(ctx, username, hash)
}

func (m *mockAuthRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.GetUserByUsernameFunc(ctx, username)
}

func newAuth(repo AuthRepository) *AuthService {
	return NewAuthService(repo, auth.NewManager("test-secret", time.Hour)).WithCost(bcrypt.MinCost)
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	svc := newAuth(repository.NewMemoryStore())
	ctx := context.Background()

	sess, err := svc.Register(ctx, "  root ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "root", sess.Username)
	assert.Equal(t, models.RoleAdmin, sess.Role)
	assert.NotEmpty(t, sess.Token)

	_, err = svc.Register(ctx, "bob", "password2")
	assert.ErrorIs(t, err, ErrPendingApproval)

	_, err = svc.Register(ctx, "bob", "password3")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_Validation(t *testing.T) {
	called := false
	repo := &mockAuthRepo{
		CreateUserFunc: func(context.Context, string, []byte) (*models.User, error) {
			called = true
			return nil, nil
		},
	}
	svc := newAuth(repo)

	tests := []struct {
		name     string
		username string
		password string
		want     string
	}{
		{"empty username", "   ", "password1", CodeUsernameRequired},
		{"short username", "ab", "password1", CodeUsernameLengthInvalid},
		{"long username", strings.Repeat("a", 65), "password1", CodeUsernameLengthInvalid},
		{"short password", "alice", "short", CodePasswordLengthInvalid},
		{"long password", "alice", strings.Repeat("p", 129), CodePasswordLengthInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Code)
		})
	}
	assert.False(t, called, "repository must not be reached with invalid input")
}

func TestRegister_RepositoryError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockAuthRepo{
		CreateUserFunc: func(context.Context, string, []byte) (*models.User, error) {
			return nil, wantErr
		},
	}
	_, err := newAuth(repo).Register(context.Background(), "alice", "password1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Register error = %v; want %v", err, wantErr)
	}
}

func TestLogin(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newAuth(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "root", "password1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "password2")
	require.ErrorIs(t, err, ErrPendingApproval)

	sess, err := svc.Login(ctx, "root", "password1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.Role)

	_, err = svc.Login(ctx, "root", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "bob", "password2")
	assert.ErrorIs(t, err, ErrPendingApproval)

	bob, err := store.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, store.SetUserApproved(ctx, bob.ID, true))

	sess, err = svc.Login(ctx, "bob", "password2")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, sess.Role)

	_, err = svc.Login(ctx, "", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeUsernamePasswordRequired, verr.Code)
}

func TestAuthenticate(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newAuth(store)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "root", "password1")
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "root", id.Username)
	assert.True(t, id.IsAdmin())

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A valid token for a removed account is rejected.
	root, err := store.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, root.ID))
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_DisabledAccount(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newAuth(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "root", "password1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "password2")
	require.ErrorIs(t, err, ErrPendingApproval)
	bob, err := store.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, store.SetUserApproved(ctx, bob.ID, true))

	sess, err := svc.Login(ctx, "bob", "password2")
	require.NoError(t, err)

	require.NoError(t, store.SetUserApproved(ctx, bob.ID, false))
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrPendingApproval)
}
