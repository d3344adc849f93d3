package collections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gobwas/glob"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/query"
)

// Service implements the Collection Service.
type Service struct {
	db    *database.DB
	query *query.Service
}

func NewService(db *database.DB, queryService *query.Service) *Service {
	return &Service{db: db, query: queryService}
}

// List returns every collection with its document count. pattern, if
// non-empty, is a shell-style glob filtering by name — admin tooling
// only, never exposed to ordinary query requests.
func (s *Service) List(ctx context.Context, pattern string) ([]Collection, error) {
	var matcher glob.Glob
	if pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, apperr.WithField(apperr.KindInvalidInput, "pattern", "invalid glob pattern")
		}
		matcher = g
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.schema, c.indexes, c.metadata, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM _sb_documents d WHERE d.collection_id = c.id)
		FROM _sb_collections c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		if matcher != nil && !matcher.Match(c.Name) {
			continue
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

// Get returns one collection by name.
func (s *Service) Get(ctx context.Context, name string) (*Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.schema, c.indexes, c.metadata, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM _sb_documents d WHERE d.collection_id = c.id)
		FROM _sb_collections c WHERE c.name = ?
	`, name)
	c, err := scanCollectionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("collection " + name + " not found")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Stats returns per-collection statistics. Size is estimated from raw
// JSON serialization length via SQLite's length(data).
func (s *Service) Stats(ctx context.Context, name string) (*Stats, error) {
	coll, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	var (
		count          int
		totalSize      sql.NullInt64
		oldest, newest sql.NullString
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0), MIN(created_at), MAX(created_at)
		FROM _sb_documents WHERE collection_id = ?
	`, coll.ID).Scan(&count, &totalSize, &oldest, &newest)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	stats := &Stats{
		DocumentCount:     count,
		TotalSizeEstimate: totalSize.Int64,
		IndexCount:        len(coll.Indexes),
	}
	if count > 0 {
		stats.AverageDocumentSize = float64(totalSize.Int64) / float64(count)
	}
	if oldest.Valid {
		if t, err := time.Parse(time.RFC3339, oldest.String); err == nil {
			stats.OldestCreatedAt = &t
		}
	}
	if newest.Valid {
		if t, err := time.Parse(time.RFC3339, newest.String); err == nil {
			stats.NewestCreatedAt = &t
		}
	}
	return stats, nil
}

// Create registers a new collection. Admin-only at the HTTP layer.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Collection, error) {
	if !query.IsValidFieldPath(in.Name) {
		return nil, apperr.WithField(apperr.KindInvalidInput, "name", "collection name contains unsafe characters")
	}

	schemaJSON := marshalOrEmpty(in.Schema, "{}")
	indexesJSON := marshalOrEmpty(in.Indexes, "[]")
	metadataJSON := marshalOrEmpty(in.Metadata, "{}")

	id := database.GenerateShortID()
	now := database.Now()

	err := s.db.Write(ctx, func(tx *database.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO _sb_collections (id, name, schema, indexes, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, in.Name, schemaJSON, indexesJSON, metadataJSON, now, now)
		if execErr != nil {
			classified := database.ClassifyError(execErr)
			if database.IsUniqueError(classified) {
				return apperr.Conflict("collection " + in.Name + " already exists")
			}
			return apperr.Storage(execErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, in.Name)
}

// Update patches a collection's schema/indexes/metadata. nil fields in
// in are left unchanged.
func (s *Service) Update(ctx context.Context, name string, in UpdateInput) (*Collection, error) {
	existing, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	schema := existing.Schema
	if in.Schema != nil {
		schema = in.Schema
	}
	indexes := existing.Indexes
	if in.Indexes != nil {
		indexes = in.Indexes
	}
	metadata := existing.Metadata
	if in.Metadata != nil {
		metadata = in.Metadata
	}

	err = s.db.Write(ctx, func(tx *database.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			UPDATE _sb_collections SET schema = ?, indexes = ?, metadata = ? WHERE id = ?
		`, marshalOrEmpty(schema, "{}"), marshalOrEmpty(indexes, "[]"), marshalOrEmpty(metadata, "{}"), existing.ID)
		if execErr != nil {
			return apperr.Storage(execErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, name)
}

// Delete removes a collection. If it still holds documents and cascade
// is false, the deletion is rejected with a conflict naming the count.
func (s *Service) Delete(ctx context.Context, name string, cascade bool) error {
	existing, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	return s.db.Write(ctx, func(tx *database.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM _sb_documents WHERE collection_id = ?
		`, existing.ID).Scan(&count); err != nil {
			return apperr.Storage(err)
		}

		if count > 0 && !cascade {
			return apperr.New(apperr.KindConflict, fmt.Sprintf("collection %s still has %d documents; pass cascade=true to delete them", name, count))
		}

		if count > 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM _sb_documents WHERE collection_id = ?`, existing.ID); err != nil {
				return apperr.Storage(err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM _sb_collections WHERE id = ?`, existing.ID); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
}

// Bulk executes a list of create/update/delete items through the Query
// Service. A failing item does not abort the rest; the aggregate
// success is the conjunction of per-item successes.
func (s *Service) Bulk(ctx context.Context, items []BulkItem) *BulkResult {
	out := &BulkResult{Success: true, Results: make([]BulkItemResult, len(items))}

	for i, item := range items {
		result, err := s.execBulkItem(ctx, item)
		if err != nil {
			out.Results[i] = BulkItemResult{Success: false, Error: err.Error()}
			out.Success = false
			continue
		}
		out.Results[i] = BulkItemResult{Success: true, Result: result}
	}

	return out
}

func (s *Service) execBulkItem(ctx context.Context, item BulkItem) (any, error) {
	switch item.Type {
	case BulkCreate:
		return s.query.Execute(ctx, query.Request{
			Action: query.ActionCreate, Collection: item.Collection, Data: item.Data,
		})
	case BulkUpdate:
		return s.query.Execute(ctx, query.Request{
			Action: query.ActionUpdate, Collection: item.Collection, Data: item.Data,
			Query: &query.QueryOptions{Where: item.Where},
		})
	case BulkDelete:
		return s.query.Execute(ctx, query.Request{
			Action: query.ActionDelete, Collection: item.Collection,
			Query: &query.QueryOptions{Where: item.Where},
		})
	default:
		return nil, apperr.InvalidInput("unknown bulk item type " + string(item.Type))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollectionRow(row *sql.Row) (*Collection, error) {
	return scanCollectionAny(row)
}

func scanCollection(rows *sql.Rows) (*Collection, error) {
	return scanCollectionAny(rows)
}

func scanCollectionAny(scanner rowScanner) (*Collection, error) {
	var (
		c                    Collection
		schemaJSON           string
		indexesJSON          string
		metadataJSON         string
		createdAt, updatedAt string
	)
	err := scanner.Scan(&c.ID, &c.Name, &schemaJSON, &indexesJSON, &metadataJSON, &createdAt, &updatedAt, &c.DocumentCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.Storage(err)
	}

	_ = json.Unmarshal([]byte(schemaJSON), &c.Schema)
	_ = json.Unmarshal([]byte(indexesJSON), &c.Indexes)
	_ = json.Unmarshal([]byte(metadataJSON), &c.Metadata)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		c.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		c.UpdatedAt = t
	}
	return &c, nil
}

func marshalOrEmpty(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(b)
}
