package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/server/response"
	"github.com/swiftbase/swiftbase/internal/storage"
)

// StorageHandlers serves the File Metadata Service's HTTP surface.
type StorageHandlers struct {
	svc   *storage.Service
	audit *audit.Logger
}

func NewStorageHandlers(svc *storage.Service, auditLog *audit.Logger) *StorageHandlers {
	return &StorageHandlers{svc: svc, audit: auditLog}
}

// Upload answers POST /api/storage/upload. The payload is the raw
// request body; the original filename and optional metadata travel as
// the X-Filename/X-Metadata headers (not a multipart form), per
// spec.md §6.1.
func (h *StorageHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())

	filename := r.Header.Get("X-Filename")
	if filename == "" {
		response.WriteError(w, r, apperr.WithField(apperr.KindInvalidInput, "X-Filename", "X-Filename header is required"))
		return
	}

	var metadata map[string]any
	if raw := r.Header.Get("X-Metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			response.WriteError(w, r, apperr.WithField(apperr.KindInvalidInput, "X-Metadata", "X-Metadata must be a JSON object"))
			return
		}
	}

	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		response.WriteError(w, r, apperr.InvalidInput("failed to read upload body"))
		return
	}

	f, err := h.svc.Upload(r.Context(), data, storage.UploadInput{
		OriginalName: filename,
		ContentType:  r.Header.Get("Content-Type"),
		Metadata:     metadata,
		PrincipalID:  principalID,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		EventType: "file.upload", EntityType: "file", EntityID: f.ID, UserID: principalID,
	})
	writeCreated(w, r, f)
}

// Get answers GET /api/storage/files/:id, supporting a single Range
// header.
func (h *StorageHandlers) Get(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	id := r.PathValue("id")

	var rng *storage.Range
	if header := r.Header.Get("Range"); header != "" {
		parsed, ok := parseRange(header)
		if !ok {
			response.WriteErrorCode(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed Range header")
			return
		}
		rng = parsed
	}

	f, rc, err := h.svc.GetBytes(r.Context(), id, principalID, rng)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.OriginalName+`"`)
	if rng != nil {
		w.WriteHeader(http.StatusPartialContent)
	}
	_, _ = io.Copy(w, rc)
}

// parseRange parses a single-range "bytes=start-end" header.
func parseRange(header string) (*storage.Range, bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, false
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return nil, false // multi-range not supported
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return nil, false
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return nil, false
	}
	end := int64(-1)
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil || end < start {
			return nil, false
		}
	}
	return &storage.Range{Start: start, End: end}, true
}

// Info answers GET /api/storage/files/:id/info.
func (h *StorageHandlers) Info(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	f, err := h.svc.GetMetadata(r.Context(), r.PathValue("id"), principalID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, f)
}

// Delete answers DELETE /api/storage/files/:id.
func (h *StorageHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	id := r.PathValue("id")
	if err := h.svc.Delete(r.Context(), id, principalID); err != nil {
		response.WriteError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		EventType: "file.delete", EntityType: "file", EntityID: id, UserID: principalID,
	})
	writeOK(w, r, map[string]bool{"deleted": true})
}

// List answers GET /api/storage/files and GET /api/storage/search
// (search adds the `q` substring filter).
func (h *StorageHandlers) List(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	filter := storage.ListFilter{
		ContentType: q.Get("content_type"),
		Search:      q.Get("q"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}

	files, err := h.svc.List(r.Context(), principalID, filter)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, files)
}

// Stats answers GET /api/storage/stats.
func (h *StorageHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	s, err := h.svc.Stats(r.Context(), principalID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, s)
}
