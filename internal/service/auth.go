package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/telecombase/internal/auth"
	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/repository"
)

// Credential limits.
const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	maxPasswordLen = 128
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// CreateUser stores a new account. The repository decides the role and
	// approval state; the first account is an approved admin.
	CreateUser(ctx context.Context, username string, passwordHash []byte) (*models.User, error)
	// GetUserByUsername returns repository.ErrNotFound for unknown names.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenManager issues and validates bearer tokens.
type TokenManager interface {
	Issue(username, role string) (string, error)
	Validate(token string) (*auth.Claims, error)
}

// Session is returned to the client after register or login.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthService registers users, checks passwords and resolves tokens.
type AuthService struct {
	repo   AuthRepository
	tokens TokenManager
	cost   int
}

// NewAuthService constructs an AuthService hashing with bcrypt.DefaultCost.
func NewAuthService(repo AuthRepository, tokens TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Register creates an account. Accounts that still need approval get
// ErrPendingApproval instead of a session.
func (s *AuthService) Register(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPasswordHash, err)
	}

	u, err := s.repo.CreateUser(ctx, username, hash)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	if !u.Active() {
		return nil, ErrPendingApproval
	}
	return s.issue(u)
}

// Login checks the password and returns a session for an approved account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid(CodeUsernamePasswordRequired)
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrPendingApproval
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to the caller. The role comes from
// the database, not the token, so demotions apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.repo.GetUserByUsername(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !u.Active() {
		return nil, ErrPendingApproval
	}
	return &models.Identity{Username: u.Username, Role: u.Role}, nil
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(u.Username, u.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenIssue, err)
	}
	return &Session{Token: token, Username: u.Username, Role: u.Role}, nil
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return invalid(CodeUsernameRequired)
	case len(username) < minUsernameLen || len(username) > maxUsernameLen:
		return invalid(CodeUsernameLengthInvalid)
	case len(password) < minPasswordLen || len(password) > maxPasswordLen:
		return invalid(CodePasswordLengthInvalid)
	}
	return nil
}
