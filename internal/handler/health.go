package handler

import (
	"log/slog"
	"net/http"
)

// Pinger is the slice of the repository the health check needs.
type Pinger interface {
	Ping() error
}

// HealthHandler reports whether the server and its database are reachable.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil when the server
// runs without a database.
func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type healthResponse struct {
	Status            string `json:"status"`
	Database          string `json:"database"`
	UsingLocalStorage bool   `json:"usingLocalStorage,omitempty"`
}

// HandleHealth answers liveness probes.
//
// HTTP: GET /api/health
//
// The endpoint returns 200 even without a database; the server is still
// serving, just in local-storage mode. Only a failing ping on a configured
// database reports 503, since that state is an outage rather than a mode.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:            "ok",
			Database:          "none",
			UsingLocalStorage: true,
		})
		return
	}

	if err := h.db.Ping(); err != nil {
		h.logger.Error("health check: database ping failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "degraded",
			Database: "unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Database: "connected",
	})
}
