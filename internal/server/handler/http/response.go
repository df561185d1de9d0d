package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/middleware"
	"github.com/atinyakov/telecombase/internal/repository"
	"github.com/atinyakov/telecombase/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type apiError struct {
	Error string `json:"error"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeCode(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, apiError{Error: code})
}

// readJSON decodes exactly one JSON value into dst and rejects unknown
// fields.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected additional JSON values")
	}
	return nil
}

// pathID parses the {id} URL parameter. Only positive integers are valid.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeError maps service and repository errors to a status and code.
// Anything unrecognized is logged and reported as db_error.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeCode(w, http.StatusBadRequest, verr.Code)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeCode(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrPendingApproval):
		writeCode(w, http.StatusForbidden, service.ErrPendingApproval.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		writeCode(w, http.StatusConflict, service.ErrUsernameTaken.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeCode(w, http.StatusNotFound, "not_found")
	case errors.Is(err, repository.ErrInUse):
		writeCode(w, http.StatusConflict, "in_use")
	case errors.Is(err, repository.ErrConflict):
		writeCode(w, http.StatusConflict, "conflict")
	default:
		code := middleware.CodeDBError
		if errors.Is(err, service.ErrPasswordHash) {
			code = service.ErrPasswordHash.Error()
		} else if errors.Is(err, service.ErrTokenIssue) {
			code = service.ErrTokenIssue.Error()
		}
		logger.Error("request failed",
			zap.String("uri", r.URL.RequestURI()),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeCode(w, http.StatusInternalServerError, code)
	}
}
