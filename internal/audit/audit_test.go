package audit

import (
	"context"
	"testing"

	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
)

func testLogger(t *testing.T) *Logger {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Path:         t.TempDir() + "/test.db",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLogger(db)
}

func TestLogger_RecordAndList(t *testing.T) {
	logger := testLogger(t)
	ctx := context.Background()

	err := logger.Record(ctx, Entry{
		EventType: "document.create", EntityType: "document", EntityID: "doc_1",
		UserID: "user_1", Data: map[string]any{"collection": "notes"}, IP: "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := logger.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(entries))
	}
	if entries[0]["event_type"] != "document.create" {
		t.Errorf("event_type = %v, want document.create", entries[0]["event_type"])
	}
}

func TestLogger_List_NewestFirst(t *testing.T) {
	logger := testLogger(t)
	ctx := context.Background()

	for _, eventType := range []string{"first", "second", "third"} {
		if err := logger.Record(ctx, Entry{EventType: eventType, EntityType: "document"}); err != nil {
			t.Fatalf("Record(%s) failed: %v", eventType, err)
		}
	}

	entries, err := logger.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 || entries[0]["event_type"] != "third" {
		t.Errorf("entries = %+v, want newest (\"third\") first", entries)
	}
}

func TestLogger_List_EmptyWithNoEntries(t *testing.T) {
	logger := testLogger(t)
	entries, err := logger.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want empty", entries)
	}
}
