// Package database implements SwiftBase's storage kernel: a single
// embedded SQLite connection pool opened in WAL mode, with an explicit
// Read/Write API that enforces the single-writer, multiple-reader
// discipline described by the storage kernel component.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database/migrations"
)

// DB wraps a *sql.DB configured for SQLite WAL concurrency and adds a
// writer lease so that at most one write transaction executes at a
// time, while reads proceed concurrently against the pool.
type DB struct {
	*sql.DB
	cfg *config.DatabaseConfig

	writerMu sync.Mutex

	closeMu sync.Mutex
	closed  bool
}

// Open creates the database file's parent directory if needed, opens
// the SQLite connection pool, applies pragmas, configures pool limits,
// and runs pending migrations.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{DB: sqlDB, cfg: cfg}

	if err := db.configure(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := migrations.Run(context.Background(), sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (db *DB) configure() error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", db.cfg.BusyTimeout.Milliseconds()),
	}

	if db.cfg.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		pragmas = append(pragmas, "PRAGMA synchronous = NORMAL")
	}

	if db.cfg.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	if db.cfg.CacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size = %d", db.cfg.CacheSize))
	}

	pragmas = append(pragmas, "PRAGMA temp_store = MEMORY")

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	return nil
}

// Close checkpoints the WAL and closes the underlying pool. Safe to
// call more than once.
func (db *DB) Close() error {
	db.closeMu.Lock()
	defer db.closeMu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	if db.cfg.WALMode {
		_, _ = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}

	return db.DB.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// Tx wraps a *sql.Tx so kernel callers never see database/sql directly.
type Tx struct {
	*sql.Tx
}

// Read runs fn against the pool with no writer lease held. Any number
// of readers may run concurrently with each other and alongside the
// single active writer, per SQLite's WAL reader/writer model.
func (db *DB) Read(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("beginning read transaction: %w", err)
	}
	tx := &Tx{Tx: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Write acquires the kernel's writer lease, runs fn inside a single
// write transaction, and commits or rolls back. Only one Write runs at
// a time across the whole process, which is what lets every trigger
// and version bump in the data model assume it is the only writer.
func (db *DB) Write(ctx context.Context, fn func(tx *Tx) error) error {
	db.writerMu.Lock()
	defer db.writerMu.Unlock()

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning write transaction: %w", err)
	}
	tx := &Tx{Tx: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// Row is a single result row keyed by column name, used by the JSON1
// query builder where the shape of returned columns is dynamic.
type Row map[string]any

// ScanRows materializes every row of rs into a Row slice, normalizing
// []byte column values (SQLite's TEXT/JSON affinity) to strings.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting columns: %w", err)
	}

	var results []Row

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return results, nil
}

// ScanRow scans a single *sql.Row whose column set is already known.
func ScanRow(row *sql.Row, columns []string) (Row, error) {
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := row.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	result := make(Row, len(columns))
	for i, col := range columns {
		result[col] = normalizeValue(values[i])
	}

	return result, nil
}

func normalizeValue(val any) any {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}

// Now returns the current time formatted the way timestamp columns are
// stored: UTC, RFC3339.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
