package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	DB     Pinger
	Logger *zap.Logger
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health answers 200 {"status":"ok"} or 503 {"status":"db_unavailable"}.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "db_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
