package handlers

import (
	"net/http"

	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/query"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

// QueryHandlers serves the MongoDB-style query surface.
type QueryHandlers struct {
	svc   *query.Service
	audit *audit.Logger
}

func NewQueryHandlers(svc *query.Service, auditLog *audit.Logger) *QueryHandlers {
	return &QueryHandlers{svc: svc, audit: auditLog}
}

// Execute answers POST /api/query.
func (h *QueryHandlers) Execute(w http.ResponseWriter, r *http.Request) {
	var req query.Request
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Execute(r.Context(), req)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	switch req.Action {
	case query.ActionCreate, query.ActionUpdate, query.ActionDelete:
		principalID, _ := auth.UserFromContext(r.Context())
		h.audit.Record(r.Context(), audit.Entry{
			EventType:  "document." + string(req.Action),
			EntityType: req.Collection,
			UserID:     principalID,
		})
	}

	writeOK(w, r, result)
}
