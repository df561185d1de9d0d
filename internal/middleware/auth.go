// Package middleware provides HTTP middlewares for bearer authentication,
// role checks, request ids and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/service"
)

type ctxKey string

const (
	identityKey  ctxKey = "identity"
	requestIDKey ctxKey = "request_id"
)

// Error codes written by the auth middlewares.
const (
	CodeMissingAuthorization = "missing_authorization"
	CodeInvalidAuthorization = "invalid_authorization"
	CodeForbidden            = "forbidden"
	CodeDBError              = "db_error"
)

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// BearerAuth requires an "Authorization: Bearer <token>" header and stores
// the resolved identity in the request context.
func BearerAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				jsonError(w, http.StatusUnauthorized, CodeMissingAuthorization)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				jsonError(w, http.StatusUnauthorized, CodeInvalidAuthorization)
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				jsonError(w, http.StatusUnauthorized, service.ErrInvalidToken.Error())
				return
			case errors.Is(err, service.ErrPendingApproval):
				jsonError(w, http.StatusForbidden, service.ErrPendingApproval.Error())
				return
			case err != nil:
				jsonError(w, http.StatusInternalServerError, CodeDBError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects callers without the admin role with 403.
// It must run after BearerAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id == nil || !id.IsAdmin() {
			jsonError(w, http.StatusForbidden, CodeForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller stored by BearerAuth, or nil.
func IdentityFromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	return id
}

func jsonError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
