// Package http provides the HTTP handlers and router of the inventory API.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/service"
)

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	// Register creates an account and returns a session for it.
	// Returns service.ErrPendingApproval when the account needs approval.
	Register(ctx context.Context, username, password string) (*service.Session, error)
	// Login verifies credentials and returns a session.
	Login(ctx context.Context, username, password string) (*service.Session, error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	AuthService AuthService
	Logger      *zap.Logger
}

// credentials is the JSON payload of both register and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /auth/register. The first account becomes an
// approved admin and receives a session (201); later accounts get 403
// account_pending_approval until an admin approves them.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := readJSON(w, r, &req); err != nil {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidJSON)
		return
	}

	sess, err := h.AuthService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.Logger.Info("user registered", zap.String("username", sess.Username), zap.String("role", sess.Role))
	writeJSON(w, http.StatusCreated, sess)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := readJSON(w, r, &req); err != nil {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidJSON)
		return
	}

	sess, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
