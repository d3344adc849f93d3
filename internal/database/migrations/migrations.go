// Package migrations defines SwiftBase's ordered, forward-and-backward
// schema migrations for the system tables.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Migration is one versioned schema step. Up is applied to move the
// schema forward to Version; Down reverses it. Both are raw SQL,
// executed statement-by-statement inside a single transaction.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AppliedMigration is a migration recorded in the version table.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// All is the hard-coded, ordered migration list for SwiftBase's system
// tables. Migrations never change once released; add new ones instead.
var All = []Migration{
	{
		Version: 1,
		Name:    "init_core_tables",
		Up: `
			CREATE TABLE _sb_collections (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				schema TEXT NOT NULL DEFAULT '{}',
				indexes TEXT NOT NULL DEFAULT '[]',
				metadata TEXT NOT NULL DEFAULT '{}',
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);

			CREATE TABLE _sb_documents (
				id TEXT PRIMARY KEY,
				collection_id TEXT NOT NULL REFERENCES _sb_collections(id) ON DELETE CASCADE,
				data TEXT NOT NULL,
				version INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
				created_by TEXT,
				updated_by TEXT
			);
			CREATE INDEX idx_documents_collection_id ON _sb_documents(collection_id);

			CREATE TABLE _sb_users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				metadata TEXT NOT NULL DEFAULT '{}',
				last_login TEXT,
				email_verified INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);

			CREATE TABLE _sb_admins (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);

			CREATE TABLE _sb_refresh_tokens (
				jti TEXT PRIMARY KEY,
				principal_id TEXT NOT NULL,
				principal_kind TEXT NOT NULL CHECK (principal_kind IN ('user', 'admin')),
				issued_at TEXT NOT NULL,
				expires_at TEXT NOT NULL
			);
			CREATE INDEX idx_refresh_tokens_principal ON _sb_refresh_tokens(principal_id);

			CREATE TABLE _sb_revocations (
				principal_id TEXT NOT NULL,
				principal_kind TEXT NOT NULL CHECK (principal_kind IN ('user', 'admin')),
				revoked_at TEXT NOT NULL,
				PRIMARY KEY (principal_id, principal_kind)
			);

			CREATE TABLE _sb_files (
				id TEXT PRIMARY KEY,
				stored_name TEXT NOT NULL UNIQUE,
				original_name TEXT NOT NULL,
				content_type TEXT NOT NULL,
				size_bytes INTEGER NOT NULL,
				path TEXT NOT NULL,
				metadata TEXT NOT NULL DEFAULT '{}',
				uploaded_by TEXT,
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);
			CREATE INDEX idx_files_uploaded_by ON _sb_files(uploaded_by);

			CREATE TABLE _sb_custom_queries (
				name TEXT PRIMARY KEY,
				description TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);

			CREATE TABLE _sb_audit_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_type TEXT NOT NULL,
				entity_type TEXT NOT NULL,
				entity_id TEXT,
				user_id TEXT,
				admin_id TEXT,
				data TEXT NOT NULL DEFAULT '{}',
				ip TEXT,
				user_agent TEXT,
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);
		`,
		Down: `
			DROP TABLE IF EXISTS _sb_audit_log;
			DROP TABLE IF EXISTS _sb_custom_queries;
			DROP TABLE IF EXISTS _sb_files;
			DROP TABLE IF EXISTS _sb_revocations;
			DROP TABLE IF EXISTS _sb_refresh_tokens;
			DROP TABLE IF EXISTS _sb_admins;
			DROP TABLE IF EXISTS _sb_users;
			DROP TABLE IF EXISTS _sb_documents;
			DROP TABLE IF EXISTS _sb_collections;
		`,
	},
	{
		Version: 2,
		Name:    "triggers",
		Up: `
			CREATE TRIGGER trg_collections_updated_at
			AFTER UPDATE ON _sb_collections
			FOR EACH ROW
			BEGIN
				UPDATE _sb_collections SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = NEW.id;
			END;

			CREATE TRIGGER trg_users_updated_at
			AFTER UPDATE ON _sb_users
			FOR EACH ROW
			BEGIN
				UPDATE _sb_users SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = NEW.id;
			END;

			CREATE TRIGGER trg_admins_updated_at
			AFTER UPDATE ON _sb_admins
			FOR EACH ROW
			BEGIN
				UPDATE _sb_admins SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = NEW.id;
			END;

			CREATE TRIGGER trg_custom_queries_updated_at
			AFTER UPDATE ON _sb_custom_queries
			FOR EACH ROW
			BEGIN
				UPDATE _sb_custom_queries SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE name = NEW.name;
			END;

			CREATE TRIGGER trg_documents_updated_at
			AFTER UPDATE ON _sb_documents
			FOR EACH ROW
			WHEN OLD.data IS NOT NEW.data
			BEGIN
				UPDATE _sb_documents
				SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now'),
				    version = OLD.version + 1
				WHERE id = NEW.id;
			END;
		`,
		Down: `
			DROP TRIGGER IF EXISTS trg_documents_updated_at;
			DROP TRIGGER IF EXISTS trg_custom_queries_updated_at;
			DROP TRIGGER IF EXISTS trg_admins_updated_at;
			DROP TRIGGER IF EXISTS trg_users_updated_at;
			DROP TRIGGER IF EXISTS trg_collections_updated_at;
		`,
	},
}

// Run applies every migration in All not yet recorded in the version
// table, in ascending version order, each inside its own transaction.
func Run(ctx context.Context, db *sql.DB) error {
	if err := ensureVersionTable(ctx, db); err != nil {
		return fmt.Errorf("ensuring version table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}

	for _, m := range All {
		if applied[m.Version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", m.Version, m.Name, err)
		}
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applied migration")
	}

	return nil
}

// Rollback reverses the most recently applied migration's Down script.
func Rollback(ctx context.Context, db *sql.DB) error {
	if err := ensureVersionTable(ctx, db); err != nil {
		return fmt.Errorf("ensuring version table: %w", err)
	}

	applied, err := GetApplied(ctx, db)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}
	if len(applied) == 0 {
		return fmt.Errorf("no migrations to roll back")
	}

	last := applied[len(applied)-1]
	var m *Migration
	for i := range All {
		if All[i].Version == last.Version {
			m = &All[i]
			break
		}
	}
	if m == nil {
		return fmt.Errorf("migration %d not found in registry", last.Version)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(m.Down) {
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing down statement: %w\nSQL: %s", err, truncate(stmt, 100))
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM _sb_internal_versions WHERE version = ?`, m.Version); err != nil {
		return fmt.Errorf("unrecording migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rollback: %w", err)
	}

	log.Info().Int("version", m.Version).Str("name", m.Name).Msg("rolled back migration")
	return nil
}

// GetApplied returns all applied migrations ordered by version.
func GetApplied(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	if err := ensureVersionTable(ctx, db); err != nil {
		return nil, fmt.Errorf("ensuring version table: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT version, name, applied_at FROM _sb_internal_versions ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var result []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		var appliedAt string
		if err := rows.Scan(&m.Version, &m.Name, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, appliedAt); parseErr == nil {
			m.AppliedAt = t
		}
		result = append(result, m)
	}

	return result, rows.Err()
}

func ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _sb_internal_versions (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)
	`)
	return err
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM _sb_internal_versions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}

	return applied, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(m.Up) {
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing statement: %w\nSQL: %s", err, truncate(stmt, 100))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO _sb_internal_versions (version, name) VALUES (?, ?)
	`, m.Version, m.Name); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}

// splitStatements splits SQL content into individual statements,
// tolerating semicolons inside string literals and inside trigger
// BEGIN...END bodies (which contain their own internal semicolons).
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)
	blockDepth := 0

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if (ch == '\'' || ch == '"') && (i == 0 || runes[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		if !inString {
			if hasWordAt(runes, i, "BEGIN") {
				blockDepth++
			} else if hasWordAt(runes, i, "END") {
				if blockDepth > 0 {
					blockDepth--
				}
			}
		}

		if ch == ';' && !inString && blockDepth == 0 {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteRune(ch)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// hasWordAt reports whether the case-insensitive keyword word occurs at
// rune offset i in runes, bounded by non-identifier characters.
func hasWordAt(runes []rune, i int, word string) bool {
	if i > 0 && isIdentRune(runes[i-1]) {
		return false
	}
	for j, w := range word {
		if i+j >= len(runes) {
			return false
		}
		r := runes[i+j]
		if r != w && r != w+32 {
			return false
		}
	}
	end := i + len(word)
	if end < len(runes) && isIdentRune(runes[end]) {
		return false
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
