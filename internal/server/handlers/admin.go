package handlers

import (
	"net/http"

	"github.com/swiftbase/swiftbase/internal/query"
	"github.com/swiftbase/swiftbase/internal/realtime"
	"github.com/swiftbase/swiftbase/internal/server/response"
	"github.com/swiftbase/swiftbase/internal/storage"
)

// AdminHandlers serves the admin-only operational endpoints: the file
// sweep trigger, the custom query registry listing, and realtime hub
// statistics.
type AdminHandlers struct {
	sweeper  *storage.Sweeper
	registry *query.CustomRegistry
	hub      *realtime.Hub
}

func NewAdminHandlers(sweeper *storage.Sweeper, registry *query.CustomRegistry, hub *realtime.Hub) *AdminHandlers {
	return &AdminHandlers{sweeper: sweeper, registry: registry, hub: hub}
}

// StorageCleanup answers POST /api/admin/storage/cleanup by running one
// sweep pass synchronously and reporting it ran.
func (h *AdminHandlers) StorageCleanup(w http.ResponseWriter, r *http.Request) {
	if err := h.sweeper.RunOnce(r.Context()); err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, map[string]bool{"swept": true})
}

// Queries answers GET /api/admin/queries.
func (h *AdminHandlers) Queries(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, h.registry.List())
}

// RealtimeStats answers GET /api/admin/realtime/stats.
func (h *AdminHandlers) RealtimeStats(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, h.hub.Stats())
}
