package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/swiftbase/swiftbase/internal/query"
	"github.com/swiftbase/swiftbase/internal/realtime"
	"github.com/swiftbase/swiftbase/internal/storage"
)

func testAdminHandlers(t *testing.T) *AdminHandlers {
	t.Helper()
	db := testHealthDB(t)
	backend := storage.NewFilesystemBackend(t.TempDir())
	sweeper := storage.NewSweeper(db, backend, "@every 1h")
	registry, err := query.NewCustomRegistry()
	if err != nil {
		t.Fatalf("building custom registry: %v", err)
	}
	return NewAdminHandlers(sweeper, registry, realtime.NewHub(nil))
}

func TestAdminHandlers_StorageCleanup(t *testing.T) {
	h := testAdminHandlers(t)
	req := httptest.NewRequest("POST", "/api/admin/storage/cleanup", nil)
	rec := httptest.NewRecorder()
	h.StorageCleanup(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestAdminHandlers_Queries(t *testing.T) {
	h := testAdminHandlers(t)
	req := httptest.NewRequest("GET", "/api/admin/queries", nil)
	rec := httptest.NewRecorder()
	h.Queries(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAdminHandlers_RealtimeStats(t *testing.T) {
	h := testAdminHandlers(t)
	req := httptest.NewRequest("GET", "/api/admin/realtime/stats", nil)
	rec := httptest.NewRecorder()
	h.RealtimeStats(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
