package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/realtime"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

// HealthHandlers serves the unauthenticated liveness/readiness/info
// endpoints.
type HealthHandlers struct {
	db      *database.DB
	hub     *realtime.Hub
	version string
}

func NewHealthHandlers(db *database.DB, hub *realtime.Hub, version string) *HealthHandlers {
	return &HealthHandlers{db: db, hub: hub, version: version}
}

// Health answers GET /health.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, map[string]string{"status": "ok"})
}

// HealthDB answers GET /health/db.
func (h *HealthHandlers) HealthDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		response.WriteErrorCode(w, r, http.StatusServiceUnavailable, "DATABASE_ERROR", "database unavailable")
		return
	}
	writeOK(w, r, map[string]string{"status": "ok"})
}

// Info answers GET /api with basic server metadata.
func (h *HealthHandlers) Info(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, map[string]any{
		"name":    "swiftbase",
		"version": h.version,
	})
}
