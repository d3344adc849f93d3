package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRun_AppliesEveryMigration(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM _sb_internal_versions").Scan(&count); err != nil {
		t.Fatalf("querying version table: %v", err)
	}
	if count != len(All) {
		t.Errorf("applied %d migrations, want %d", count, len(All))
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if err := Run(ctx, db); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM _sb_internal_versions").Scan(&count); err != nil {
		t.Fatalf("querying version table: %v", err)
	}
	if count != len(All) {
		t.Errorf("after two Run calls: applied %d migrations, want %d", count, len(All))
	}
}

func TestRun_CreatesCoreTables(t *testing.T) {
	db := testDB(t)
	if err := Run(context.Background(), db); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, table := range []string{"_sb_collections", "_sb_documents", "_sb_admins", "_sb_refresh_tokens"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestGetApplied_OrderedByVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	applied, err := GetApplied(ctx, db)
	if err != nil {
		t.Fatalf("GetApplied failed: %v", err)
	}
	if len(applied) != len(All) {
		t.Fatalf("GetApplied returned %d entries, want %d", len(applied), len(All))
	}
	for i, m := range applied {
		if m.Version != All[i].Version {
			t.Errorf("applied[%d].Version = %d, want %d", i, m.Version, All[i].Version)
		}
	}
}

func TestRollback_ReversesLastMigration(t *testing.T) {
	if len(All) < 1 || All[len(All)-1].Down == "" {
		t.Skip("no rollback-capable migration to test against")
	}

	db := testDB(t)
	ctx := context.Background()
	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if err := Rollback(ctx, db); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	applied, err := GetApplied(ctx, db)
	if err != nil {
		t.Fatalf("GetApplied failed: %v", err)
	}
	if len(applied) != len(All)-1 {
		t.Errorf("applied count after rollback = %d, want %d", len(applied), len(All)-1)
	}
}
