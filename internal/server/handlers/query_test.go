package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/query"
)

func testQueryHandlers(t *testing.T) *QueryHandlers {
	t.Helper()
	db := testHealthDB(t)
	if _, err := db.Exec(`INSERT INTO _sb_collections (id, name) VALUES (?, ?)`, "coll_1", "notes"); err != nil {
		t.Fatalf("seeding collection: %v", err)
	}
	svc := query.NewService(db, nil, nil)
	return NewQueryHandlers(svc, audit.NewLogger(db))
}

func TestQueryHandlers_Execute_Create(t *testing.T) {
	h := testQueryHandlers(t)
	body, _ := json.Marshal(query.Request{
		Action: query.ActionCreate, Collection: "notes",
		Data: map[string]any{"title": "hello"},
	})
	req := httptest.NewRequest("POST", "/api/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestQueryHandlers_Execute_UnknownCollection(t *testing.T) {
	h := testQueryHandlers(t)
	body, _ := json.Marshal(query.Request{Action: query.ActionFind, Collection: "ghosts"})
	req := httptest.NewRequest("POST", "/api/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	if rec.Code == 200 {
		t.Fatal("expected a query against an unknown collection to fail")
	}
}

func TestQueryHandlers_Execute_MalformedJSON(t *testing.T) {
	h := testQueryHandlers(t)
	req := httptest.NewRequest("POST", "/api/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400 for malformed JSON", rec.Code)
	}
}
