package handlers

import (
	"net/http"
	"strconv"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/collections"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

// CollectionHandlers serves the Collection Service's admin surface and
// the bulk multi-operation endpoint.
type CollectionHandlers struct {
	svc   *collections.Service
	audit *audit.Logger
}

func NewCollectionHandlers(svc *collections.Service, auditLog *audit.Logger) *CollectionHandlers {
	return &CollectionHandlers{svc: svc, audit: auditLog}
}

// List answers GET /api/admin/collections.
func (h *CollectionHandlers) List(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("filter")
	out, err := h.svc.List(r.Context(), pattern)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, out)
}

// Get answers GET /api/admin/collections/:name.
func (h *CollectionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	c, err := h.svc.Get(r.Context(), name)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, c)
}

// Stats answers GET /api/admin/collections/:name/stats.
func (h *CollectionHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s, err := h.svc.Stats(r.Context(), name)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, s)
}

type createCollectionRequest struct {
	Name     string         `json:"name"`
	Schema   map[string]any `json:"schema,omitempty"`
	Indexes  []string       `json:"indexes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Create answers POST /api/admin/collections.
func (h *CollectionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), collections.CreateInput{
		Name: req.Name, Schema: req.Schema, Indexes: req.Indexes, Metadata: req.Metadata,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	principalID, _ := auth.UserFromContext(r.Context())
	h.audit.Record(r.Context(), audit.Entry{
		EventType: "collection.create", EntityType: "collection", EntityID: c.Name, AdminID: principalID,
	})
	writeCreated(w, r, c)
}

type updateCollectionRequest struct {
	Schema   map[string]any `json:"schema,omitempty"`
	Indexes  []string       `json:"indexes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Update answers PUT /api/admin/collections/:name.
func (h *CollectionHandlers) Update(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req updateCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	c, err := h.svc.Update(r.Context(), name, collections.UpdateInput{
		Schema: req.Schema, Indexes: req.Indexes, Metadata: req.Metadata,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	principalID, _ := auth.UserFromContext(r.Context())
	h.audit.Record(r.Context(), audit.Entry{
		EventType: "collection.update", EntityType: "collection", EntityID: name, AdminID: principalID,
	})
	writeOK(w, r, c)
}

// Delete answers DELETE /api/admin/collections/:name?cascade=true.
func (h *CollectionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade"))

	if err := h.svc.Delete(r.Context(), name, cascade); err != nil {
		response.WriteError(w, r, err)
		return
	}
	principalID, _ := auth.UserFromContext(r.Context())
	h.audit.Record(r.Context(), audit.Entry{
		EventType: "collection.delete", EntityType: "collection", EntityID: name, AdminID: principalID,
	})
	writeOK(w, r, map[string]bool{"deleted": true})
}

// Bulk answers POST /api/bulk.
func (h *CollectionHandlers) Bulk(w http.ResponseWriter, r *http.Request) {
	var items []collections.BulkItem
	if err := decodeJSON(r, &items); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if len(items) == 0 {
		response.WriteError(w, r, apperr.InvalidInput("bulk request must contain at least one item"))
		return
	}

	result := h.svc.Bulk(r.Context(), items)
	writeOK(w, r, result)
}
