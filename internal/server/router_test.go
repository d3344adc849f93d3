package server

import (
	"context"
	"strings"
	"net/http/httptest"
	"testing"

	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = t.TempDir() + "/test.db"
	cfg.Storage.Path = t.TempDir()
	cfg.Auth.JWT.Secret = "testsecret12345678901234567890123456"

	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv, err := New(cfg, db)
	if err != nil {
		t.Fatalf("building server: %v", err)
	}
	return srv
}

func TestRouter_HealthRoute(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UnknownRouteReturns404(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest("GET", "/nonexistent", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404 for an unmapped route", rec.Code)
	}
}

func TestRouter_QueryRequiresAuth(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest("POST", "/api/query", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401 without a bearer token", rec.Code)
	}
}

func TestRouter_AdminCollectionCreateRejectsUserToken(t *testing.T) {
	srv := testServer(t)

	_, tokens, err := srv.auth.Register(context.Background(), auth.RegisterInput{
		Email: "user@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	body := `{"name":"widgets"}`
	createReq := httptest.NewRequest("POST", "/api/admin/collections", strings.NewReader(body))
	createReq.Header.Set("Content-Type", "application/json")
	createReq.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, createReq)

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401 for a user token on an admin-only route", rec.Code)
	}
}

func TestRouter_VersionMiddlewareRejectsBadVersion(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("API-Version", "9.9")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400 for an unsupported API-Version", rec.Code)
	}
}
