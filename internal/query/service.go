package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/database"
)

// Publisher is the Realtime Hub's inbound face: the Query Service
// publishes one event per document a mutating operation affects,
// strictly after the owning write transaction commits.
type Publisher interface {
	Publish(collection string, event Event)
}

// Event is what the Query Service hands to the Realtime Hub.
type Event struct {
	Type       string // "create", "update", "delete"
	Collection string
	DocumentID string
	Payload    any
}

// Registry is the Custom Query Registry's query-side face, so the
// Query Service can dispatch `action: "custom"` through Call alone,
// without depending on the concrete *CustomRegistry.
type Registry interface {
	Call(ctx context.Context, name string, params map[string]any) (any, error)
}

// Document is a fully materialized document row.
type Document struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	Version   int            `json:"version"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// FindResult is the result of a find action.
type FindResult struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// Service implements the Query Service: it resolves a Parsed request
// against a named collection's documents and, for mutating actions,
// publishes a post-commit event to the Realtime Hub.
type Service struct {
	db        *database.DB
	publisher Publisher
	registry  Registry
}

func NewService(db *database.DB, publisher Publisher, registry Registry) *Service {
	return &Service{db: db, publisher: publisher, registry: registry}
}

// Execute runs a validated request end to end.
func (s *Service) Execute(ctx context.Context, req Request) (any, error) {
	parsed, err := Parse(req)
	if err != nil {
		return nil, err
	}

	switch parsed.Action {
	case ActionFind:
		return s.find(ctx, parsed)
	case ActionFindOne:
		parsed.Limit = 1
		res, err := s.find(ctx, parsed)
		if err != nil {
			return nil, err
		}
		if len(res.Documents) == 0 {
			return nil, apperr.NotFound("document not found")
		}
		return res.Documents[0], nil
	case ActionCount:
		return s.count(ctx, parsed)
	case ActionCreate:
		return s.create(ctx, parsed)
	case ActionUpdate:
		return s.update(ctx, parsed)
	case ActionDelete:
		return s.delete(ctx, parsed)
	case ActionAggregate:
		return nil, apperr.New(apperr.KindInvalidInput, "aggregate is not implemented")
	case ActionCustom:
		if s.registry == nil {
			return nil, apperr.New(apperr.KindInvalidInput, "custom queries are not available")
		}
		return s.registry.Call(ctx, parsed.Custom, parsed.Params)
	default:
		return nil, apperr.InvalidInput("unknown action " + string(parsed.Action))
	}
}

func (s *Service) collectionID(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM _sb_collections WHERE name = ?`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("collection " + name + " does not exist")
		}
		return "", apperr.Storage(err)
	}
	return id, nil
}

func (s *Service) find(ctx context.Context, p *Parsed) (*FindResult, error) {
	collID, err := s.collectionID(ctx, p.Collection)
	if err != nil {
		return nil, err
	}

	whereSQL, whereArgs, err := BuildWhere(p.Where)
	if err != nil {
		return nil, err
	}
	orderSQL, err := BuildOrderBy(p.OrderBy)
	if err != nil {
		return nil, err
	}

	// distinct takes priority over select: it projects only the listed
	// fields and dedupes on their combined values via SELECT DISTINCT,
	// so the row-level id/version/timestamps (which are unique per
	// document and would defeat deduplication) are omitted entirely.
	// select, when present without distinct, limits the returned data
	// to the named fields but still attaches full row metadata.
	distinct := len(p.Distinct) > 0
	selectFields := p.Select
	if distinct {
		selectFields = p.Distinct
	}
	dataExpr, err := BuildSelect(selectFields)
	if err != nil {
		return nil, err
	}

	var sqlStr string
	if distinct {
		sqlStr = fmt.Sprintf(
			`SELECT DISTINCT %s AS data FROM _sb_documents WHERE collection_id = ? AND (%s)`,
			dataExpr, whereSQL,
		)
	} else {
		sqlStr = fmt.Sprintf(
			`SELECT id, %s AS data, version, created_at, updated_at FROM _sb_documents WHERE collection_id = ? AND (%s)`,
			dataExpr, whereSQL,
		)
	}
	args := append([]any{collID}, whereArgs...)
	if orderSQL != "" {
		sqlStr += " ORDER BY " + orderSQL
	}
	sqlStr += " LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Offset)

	result := &FindResult{}
	err = s.db.Read(ctx, func(tx *database.Tx) error {
		rows, err := tx.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return apperr.Storage(err)
		}
		defer rows.Close()

		for rows.Next() {
			var doc Document
			var dataJSON string
			if distinct {
				if err := rows.Scan(&dataJSON); err != nil {
					return apperr.Storage(err)
				}
			} else if err := rows.Scan(&doc.ID, &dataJSON, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
				return apperr.Storage(err)
			}
			var data map[string]any
			if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
				return apperr.Storage(err)
			}
			doc.Data = data
			result.Documents = append(result.Documents, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	result.Count = len(result.Documents)
	return result, nil
}

func (s *Service) count(ctx context.Context, p *Parsed) (int, error) {
	collID, err := s.collectionID(ctx, p.Collection)
	if err != nil {
		return 0, err
	}

	whereSQL, whereArgs, err := BuildWhere(p.Where)
	if err != nil {
		return 0, err
	}

	sqlStr := fmt.Sprintf(`SELECT COUNT(*) FROM _sb_documents WHERE collection_id = ? AND (%s)`, whereSQL)
	args := append([]any{collID}, whereArgs...)

	var n int
	err = s.db.Read(ctx, func(tx *database.Tx) error {
		return tx.QueryRowContext(ctx, sqlStr, args...).Scan(&n)
	})
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}

func (s *Service) create(ctx context.Context, p *Parsed) (*Document, error) {
	collID, err := s.collectionID(ctx, p.Collection)
	if err != nil {
		return nil, err
	}

	data := p.Create
	id, ok := data["_id"].(string)
	if !ok || id == "" {
		id = database.GenerateShortID()
		data["_id"] = id
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, apperr.InvalidInput("data is not JSON-encodable")
	}

	var doc *Document
	err = s.db.Write(ctx, func(tx *database.Tx) error {
		now := database.Now()
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO _sb_documents (id, collection_id, data, version, created_at, updated_at)
			VALUES (?, ?, ?, 1, ?, ?)
		`, id, collID, string(dataJSON), now, now)
		if execErr != nil {
			classified := database.ClassifyError(execErr)
			if database.IsUniqueError(classified) {
				return apperr.Conflict("a document with this _id already exists")
			}
			return apperr.Storage(execErr)
		}
		doc = &Document{ID: id, Data: data, Version: 1, CreatedAt: now, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(p.Collection, Event{
			Type: "create", Collection: p.Collection, DocumentID: id, Payload: data,
		})
	}
	return doc, nil
}

type updateResult struct {
	Updated int `json:"updated"`
}

func (s *Service) update(ctx context.Context, p *Parsed) (*updateResult, error) {
	collID, err := s.collectionID(ctx, p.Collection)
	if err != nil {
		return nil, err
	}

	whereSQL, whereArgs, err := BuildWhere(p.Where)
	if err != nil {
		return nil, err
	}
	setSQL, setArgs, err := BuildUpdate(p.Update)
	if err != nil {
		return nil, err
	}

	var ids []string
	var n int
	err = s.db.Write(ctx, func(tx *database.Tx) error {
		selectSQL := fmt.Sprintf(`SELECT id FROM _sb_documents WHERE collection_id = ? AND (%s)`, whereSQL)
		rows, err := tx.QueryContext(ctx, selectSQL, append([]any{collID}, whereArgs...)...)
		if err != nil {
			return apperr.Storage(err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return apperr.Storage(err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return apperr.Storage(err)
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}

		updateSQL := fmt.Sprintf(`UPDATE _sb_documents SET %s WHERE collection_id = ? AND (%s)`, setSQL, whereSQL)
		args := append(append([]any{}, setArgs...), collID)
		args = append(args, whereArgs...)
		res, err := tx.ExecContext(ctx, updateSQL, args...)
		if err != nil {
			return apperr.Storage(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return apperr.Storage(err)
		}
		n = int(affected)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		for _, id := range ids {
			s.publisher.Publish(p.Collection, Event{
				Type: "update", Collection: p.Collection, DocumentID: id, Payload: rawUpdatePayload(p.Update),
			})
		}
	}
	return &updateResult{Updated: n}, nil
}

type deleteResult struct {
	Deleted int `json:"deleted"`
}

func (s *Service) delete(ctx context.Context, p *Parsed) (*deleteResult, error) {
	collID, err := s.collectionID(ctx, p.Collection)
	if err != nil {
		return nil, err
	}

	whereSQL, whereArgs, err := BuildWhere(p.Where)
	if err != nil {
		return nil, err
	}

	var ids []string
	var n int
	err = s.db.Write(ctx, func(tx *database.Tx) error {
		selectSQL := fmt.Sprintf(`SELECT id FROM _sb_documents WHERE collection_id = ? AND (%s)`, whereSQL)
		rows, err := tx.QueryContext(ctx, selectSQL, append([]any{collID}, whereArgs...)...)
		if err != nil {
			return apperr.Storage(err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return apperr.Storage(err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return apperr.Storage(err)
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}

		deleteSQL := fmt.Sprintf(`DELETE FROM _sb_documents WHERE collection_id = ? AND (%s)`, whereSQL)
		res, err := tx.ExecContext(ctx, deleteSQL, append([]any{collID}, whereArgs...)...)
		if err != nil {
			return apperr.Storage(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return apperr.Storage(err)
		}
		n = int(affected)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		for _, id := range ids {
			s.publisher.Publish(p.Collection, Event{
				Type: "delete", Collection: p.Collection, DocumentID: id,
			})
		}
	}
	return &deleteResult{Deleted: n}, nil
}

// rawUpdatePayload flattens a normalized operator map back into the
// {"$set": {...}, ...} shape the client originally sent, since the
// broadcast event carries the delta rather than the new document.
func rawUpdatePayload(ops map[UpdateOp]map[string]any) map[string]any {
	out := make(map[string]any, len(ops))
	for op, fields := range ops {
		out[string(op)] = fields
	}
	return out
}
