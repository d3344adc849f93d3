package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/swiftbase/swiftbase/internal/apperr"
)

// Envelope is the standardized shape every JSON response is wrapped in.
type Envelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    *EnvelopeError `json:"error,omitempty"`
	Metadata *Metadata      `json:"metadata,omitempty"`
}

// EnvelopeError is the envelope's error branch.
type EnvelopeError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Metadata accompanies a successful response.
type Metadata struct {
	Timestamp  string      `json:"timestamp"`
	RequestID  string      `json:"requestId,omitempty"`
	DurationMS int64       `json:"duration,omitempty"`
	Version    string      `json:"version"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a paginated result set.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// kindStatus maps apperr.Kind to the HTTP status and wire code spec.md
// §6.1's error table names. Kinds outside this table map to
// INTERNAL_SERVER_ERROR/500.
var kindStatus = map[apperr.Kind]struct {
	status int
	code   string
}{
	apperr.KindInvalidInput:    {http.StatusBadRequest, "BAD_REQUEST"},
	apperr.KindAuthFailure:     {http.StatusUnauthorized, "UNAUTHORIZED"},
	apperr.KindForbidden:       {http.StatusForbidden, "FORBIDDEN"},
	apperr.KindNotFound:        {http.StatusNotFound, "NOT_FOUND"},
	apperr.KindConflict:        {http.StatusConflict, "CONFLICT"},
	apperr.KindPayloadTooLarge: {http.StatusRequestEntityTooLarge, "CONTENT_TOO_LARGE"},
	apperr.KindStorage:         {http.StatusInternalServerError, "DATABASE_ERROR"},
	apperr.KindInternal:        {http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env *Envelope) {
	meta := env.Metadata
	if meta == nil {
		meta = &Metadata{}
		env.Metadata = meta
	}
	meta.Timestamp = time.Now().UTC().Format(time.RFC3339)
	meta.RequestID = RequestID(r.Context())
	if meta.Version == "" {
		meta.Version = apiVersion(r.Context())
	}
	if start := RequestTime(r.Context()); !start.IsZero() {
		meta.DurationMS = time.Since(start).Milliseconds()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// WriteData writes a successful envelope carrying data.
func WriteData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, r, status, &Envelope{Success: true, Data: data})
}

// WritePaginated writes a successful envelope carrying data plus
// pagination metadata.
func WritePaginated(w http.ResponseWriter, r *http.Request, data any, page Pagination) {
	writeEnvelope(w, r, http.StatusOK, &Envelope{
		Success:  true,
		Data:     data,
		Metadata: &Metadata{Pagination: &page},
	})
}

// WriteError translates err into the standardized error envelope. Any
// error that is not an *apperr.Error is treated as internal, per
// spec.md's "only the front end translates" propagation policy.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.Of(err)
	mapped, ok := kindStatus[ae.Kind]
	if !ok {
		mapped = kindStatus[apperr.KindInternal]
	}

	envErr := &EnvelopeError{
		Code:      mapped.code,
		Message:   ae.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if ae.Field != "" {
		envErr.Metadata = map[string]any{"field": ae.Field}
	}

	writeEnvelope(w, r, mapped.status, &Envelope{Success: false, Error: envErr})
}

// WriteErrorCode writes a raw code/status pair without an apperr, used
// by the validation, version and panic-recovery middleware.
func WriteErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, &Envelope{
		Success: false,
		Error: &EnvelopeError{
			Code: code, Message: message,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}
