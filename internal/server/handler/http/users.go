package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/middleware"
	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/service"
)

// UserService defines the account administration operations required by
// UserHandler.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	ListPending(ctx context.Context) ([]models.User, error)
	Approve(ctx context.Context, id int64) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	Delete(ctx context.Context, actor string, id int64) error
}

// UserHandler serves the admin-only /users routes.
type UserHandler struct {
	Service UserService
	Logger  *zap.Logger
}

type userListItem struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Approved  bool   `json:"approved"`
	CreatedAt string `json:"createdAt"`
}

type pendingUserListItem struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type approvalRequest struct {
	Approved bool `json:"approved"`
}

type approvalResponse struct {
	Status   string `json:"status"`
	Approved bool   `json:"approved"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, userListItem{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			Approved:  u.Approved,
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// ListPending handles GET /users/pending.
func (h *UserHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListPending(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	items := make([]pendingUserListItem, 0, len(users))
	for _, u := range users {
		items = append(items, pendingUserListItem{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Approve handles POST /users/{id}/approve.
func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidID)
		return
	}
	if err := h.Service.Approve(r.Context(), id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.Logger.Info("user approved", zap.Int64("id", id))
	writeJSON(w, http.StatusOK, statusResponse{Status: "approved"})
}

// SetApproval handles PUT /users/{id}/approval.
func (h *UserHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	id, ok := decode(w, r, &req, true)
	if !ok {
		return
	}
	if err := h.Service.SetApproved(r.Context(), id, req.Approved); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, approvalResponse{Status: "ok", Approved: req.Approved})
}

// Delete handles DELETE /users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidID)
		return
	}
	var actor string
	if caller := middleware.IdentityFromContext(r.Context()); caller != nil {
		actor = caller.Username
	}
	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}
