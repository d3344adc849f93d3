package handlers

import (
	"net/http"

	"github.com/swiftbase/swiftbase/internal/realtime"
)

// RealtimeHandler mounts the Realtime Hub's WebSocket upgrade directly:
// the hub owns its own authentication (token query param or bearer
// header, falling back to anonymous) per spec.md §4.M, so this
// endpoint intentionally sits outside the route-level auth middleware.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeHTTP(w, r)
}
