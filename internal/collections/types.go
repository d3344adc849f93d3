// Package collections implements the Collection Service: collection
// CRUD, per-collection statistics, cascade delete, and the bulk
// multi-operation endpoint that fans out into the Query Service.
package collections

import "time"

// Collection is a named document container with an optional JSON
// schema and index declarations, both opaque to the storage kernel.
type Collection struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Schema    map[string]any `json:"schema,omitempty"`
	Indexes   []string       `json:"indexes,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	DocumentCount int `json:"document_count,omitempty"`
}

// Stats is the per-collection statistics payload.
type Stats struct {
	DocumentCount       int        `json:"document_count"`
	TotalSizeEstimate   int64      `json:"total_size_estimate"`
	AverageDocumentSize float64    `json:"average_document_size"`
	IndexCount          int        `json:"index_count"`
	OldestCreatedAt     *time.Time `json:"oldest_created_at,omitempty"`
	NewestCreatedAt     *time.Time `json:"newest_created_at,omitempty"`
}

// CreateInput is the payload accepted by Create.
type CreateInput struct {
	Name     string
	Schema   map[string]any
	Indexes  []string
	Metadata map[string]any
}

// UpdateInput is the payload accepted by Update; nil fields are left
// unchanged.
type UpdateInput struct {
	Schema   map[string]any
	Indexes  []string
	Metadata map[string]any
}

// BulkItemType is the `type` discriminator of a bulk request item.
type BulkItemType string

const (
	BulkCreate BulkItemType = "create"
	BulkUpdate BulkItemType = "update"
	BulkDelete BulkItemType = "delete"
)

// BulkItem is one entry of a bulk endpoint request.
type BulkItem struct {
	Type       BulkItemType   `json:"type"`
	Collection string         `json:"collection"`
	Data       map[string]any `json:"data,omitempty"`
	Where      map[string]any `json:"where,omitempty"`
}

// BulkItemResult is the per-item outcome of a bulk request.
type BulkItemResult struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkResult is the aggregate outcome of a bulk request: success is
// the conjunction of every item's success.
type BulkResult struct {
	Success bool             `json:"success"`
	Results []BulkItemResult `json:"results"`
}
