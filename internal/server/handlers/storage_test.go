package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/storage"
)

func testStorageHandlers(t *testing.T) *StorageHandlers {
	t.Helper()
	db := testHealthDB(t)
	backend := storage.NewFilesystemBackend(t.TempDir())
	svc := storage.NewService(db, backend, 0, 0, nil)
	return NewStorageHandlers(svc, audit.NewLogger(db))
}

func TestStorageHandlers_UploadAndGet(t *testing.T) {
	h := testStorageHandlers(t)

	uploadReq := httptest.NewRequest("POST", "/api/storage/upload", bytes.NewReader([]byte("hello world")))
	uploadReq.Header.Set("X-Filename", "note.txt")
	uploadReq = uploadReq.WithContext(auth.ContextWithUser(uploadReq.Context(), "user_1"))
	uploadRec := httptest.NewRecorder()
	h.Upload(uploadRec, uploadReq)
	if uploadRec.Code != 201 {
		t.Fatalf("Upload status = %d, want 201, body=%s", uploadRec.Code, uploadRec.Body.String())
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(uploadRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}

	getReq := httptest.NewRequest("GET", "/api/storage/files/"+resp.Data.ID, nil)
	getReq.SetPathValue("id", resp.Data.ID)
	getReq = getReq.WithContext(auth.ContextWithUser(getReq.Context(), "user_1"))
	getRec := httptest.NewRecorder()
	h.Get(getRec, getReq)

	if getRec.Code != 200 {
		t.Fatalf("Get status = %d, want 200", getRec.Code)
	}
	if getRec.Body.String() != "hello world" {
		t.Errorf("body = %q, want %q", getRec.Body.String(), "hello world")
	}
}

func TestStorageHandlers_Upload_RejectsMissingFilename(t *testing.T) {
	h := testStorageHandlers(t)
	req := httptest.NewRequest("POST", "/api/storage/upload", bytes.NewReader([]byte("data")))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400 without X-Filename", rec.Code)
	}
}

func TestStorageHandlers_Get_ForbiddenForOtherPrincipal(t *testing.T) {
	h := testStorageHandlers(t)

	uploadReq := httptest.NewRequest("POST", "/api/storage/upload", bytes.NewReader([]byte("secret")))
	uploadReq.Header.Set("X-Filename", "secret.txt")
	uploadReq = uploadReq.WithContext(auth.ContextWithUser(uploadReq.Context(), "owner"))
	uploadRec := httptest.NewRecorder()
	h.Upload(uploadRec, uploadReq)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	json.Unmarshal(uploadRec.Body.Bytes(), &resp)

	getReq := httptest.NewRequest("GET", "/api/storage/files/"+resp.Data.ID, nil)
	getReq.SetPathValue("id", resp.Data.ID)
	getReq = getReq.WithContext(auth.ContextWithUser(getReq.Context(), "stranger"))
	getRec := httptest.NewRecorder()
	h.Get(getRec, getReq)

	if getRec.Code != 403 {
		t.Errorf("status = %d, want 403 for a non-owner request", getRec.Code)
	}
}

func TestStorageHandlers_List(t *testing.T) {
	h := testStorageHandlers(t)
	uploadReq := httptest.NewRequest("POST", "/api/storage/upload", bytes.NewReader([]byte("data")))
	uploadReq.Header.Set("X-Filename", "a.txt")
	uploadReq = uploadReq.WithContext(auth.ContextWithUser(uploadReq.Context(), "user_1"))
	h.Upload(httptest.NewRecorder(), uploadReq)

	req := httptest.NewRequest("GET", "/api/storage/files", nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), "user_1"))
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestStorageHandlers_Stats(t *testing.T) {
	h := testStorageHandlers(t)
	req := httptest.NewRequest("GET", "/api/storage/stats", nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), "user_1"))
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}
