package service

import (
	"context"

	"github.com/atinyakov/telecombase/internal/models"
)

// UserRepository defines the account administration queries.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListPendingUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	SetUserApproved(ctx context.Context, id int64, approved bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// UserService implements the admin-only account operations.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// ListPending returns accounts waiting for approval.
func (s *UserService) ListPending(ctx context.Context) ([]models.User, error) {
	return s.repo.ListPendingUsers(ctx)
}

// Approve marks the account as approved.
func (s *UserService) Approve(ctx context.Context, id int64) error {
	return s.repo.SetUserApproved(ctx, id, true)
}

// SetApproved changes the approval flag. Admins cannot be disabled.
func (s *UserService) SetApproved(ctx context.Context, id int64, approved bool) error {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin && !approved {
		return invalid(CodeCannotDisableAdmin)
	}
	return s.repo.SetUserApproved(ctx, id, approved)
}

// Delete removes an account on behalf of actor. Neither the caller's own
// account nor any admin can be removed.
func (s *UserService) Delete(ctx context.Context, actor string, id int64) error {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Username == actor {
		return invalid(CodeCannotDeleteSelf)
	}
	if u.Role == models.RoleAdmin {
		return invalid(CodeCannotDeleteAdmin)
	}
	return s.repo.DeleteUser(ctx, id)
}
