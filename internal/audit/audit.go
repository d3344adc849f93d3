// Package audit implements the append-only Audit Log: the HTTP handlers
// record one _sb_audit_log row per sign-up, login, logout, document
// write, collection change and file change (token refresh and the bulk
// endpoint record none), grounded on the teacher's requestlog.Store pattern but durable
// (DB-backed) rather than an in-memory ring buffer, since audit
// entries must survive a restart.
package audit

import (
	"context"
	"encoding/json"

	"github.com/swiftbase/swiftbase/internal/database"
)

// Entry is one audit record.
type Entry struct {
	EventType  string
	EntityType string
	EntityID   string
	UserID     string
	AdminID    string
	Data       map[string]any
	IP         string
	UserAgent  string
}

// Logger appends entries to _sb_audit_log.
type Logger struct {
	db *database.DB
}

func NewLogger(db *database.DB) *Logger {
	return &Logger{db: db}
}

// Record inserts one entry. Failures are logged by the caller's own
// error handling path if they choose to check the return value, but a
// Record failure must never roll back the operation it is describing.
func (l *Logger) Record(ctx context.Context, e Entry) error {
	data := "{}"
	if e.Data != nil {
		if b, err := json.Marshal(e.Data); err == nil {
			data = string(b)
		}
	}

	return l.db.Write(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO _sb_audit_log (event_type, entity_type, entity_id, user_id, admin_id, data, ip, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.EventType, e.EntityType, nullable(e.EntityID), nullable(e.UserID), nullable(e.AdminID), data, nullable(e.IP), nullable(e.UserAgent), database.Now())
		return err
	})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns the most recent entries, newest first. No HTTP route
// serves it.
func (l *Logger) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, event_type, entity_type, entity_id, user_id, admin_id, data, ip, user_agent, created_at
		FROM _sb_audit_log ORDER BY id DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	result := make([]map[string]any, 0, len(out))
	for _, row := range out {
		m := make(map[string]any, len(cols))
		for _, c := range cols {
			m[c] = row[c]
		}
		result = append(result, m)
	}
	return result, nil
}
