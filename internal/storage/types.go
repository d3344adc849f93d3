// Package storage implements the File Metadata Service: upload,
// access-controlled retrieval (including byte-range), listing, deletion,
// usage statistics, and a background sweep reconciling the filesystem
// backend against the _sb_files metadata table.
package storage

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrPayloadTooLarge = errors.New("file exceeds maximum size")
)

// MaxFileSize is the hard upload ceiling per spec §4.L; Config may set
// a lower value but never a higher one.
const MaxFileSize = 100 << 20 // 100 MiB

// File is a stored file's metadata row.
type File struct {
	ID           string         `json:"id"`
	StoredName   string         `json:"-"`
	OriginalName string         `json:"original_name"`
	ContentType  string         `json:"content_type"`
	SizeBytes    int64          `json:"size_bytes"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	UploadedBy   string         `json:"uploaded_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// UploadInput is the payload accepted by Upload.
type UploadInput struct {
	OriginalName string
	ContentType  string
	Metadata     map[string]any
	PrincipalID  string
}

// ListFilter narrows a listing by content type or a substring search
// over the original filename.
type ListFilter struct {
	ContentType string
	Search      string
	Limit       int
	Offset      int
}

// Range is a single-range byte request, inclusive on both ends.
type Range struct {
	Start int64
	End   int64 // -1 means "to end of file"
}

// Stats is the aggregate totals returned by the stats operation.
type Stats struct {
	Count      int   `json:"count"`
	TotalBytes int64 `json:"total_bytes"`
}
