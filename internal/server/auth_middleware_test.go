package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
)

func testAuthService(t *testing.T) *auth.Service {
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

	return auth.NewService(db, &config.AuthConfig{
		JWT: config.JWTConfig{
			Secret: "testsecret12345678901234567890123456", Issuer: "swiftbase-test",
			AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour,
		},
		Password:          config.PasswordConfig{MinLength: 8},
		AllowRegistration: true,
	})
}

func TestRequireAuth_RejectsMissingHeader(t *testing.T) {
	svc := testAuthService(t)
	handler := RequireAuth(svc, auth.PrincipalUser)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_AcceptsValidToken(t *testing.T) {
	svc := testAuthService(t)
	_, tokens, err := svc.Register(context.Background(), auth.RegisterInput{
		Email: "alice@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var reached bool
	handler := RequireAuth(svc, auth.PrincipalUser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Fatal("expected the wrapped handler to run for a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuth_RejectsWrongPrincipalKind(t *testing.T) {
	svc := testAuthService(t)
	_, tokens, err := svc.Register(context.Background(), auth.RegisterInput{
		Email: "bob@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	handler := RequireAuth(svc, auth.PrincipalAdmin)(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for a user token on an admin-only route", rec.Code)
	}
}

func TestRequireAnyPrincipal_AcceptsEitherKind(t *testing.T) {
	svc := testAuthService(t)
	_, tokens, err := svc.Register(context.Background(), auth.RegisterInput{
		Email: "carol@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	handler := RequireAnyPrincipal(svc)(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a valid user token", rec.Code)
	}
}

func TestBearerToken_RejectsMalformedHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	if _, err := bearerToken(req); err == nil {
		t.Fatal("expected a non-Bearer scheme to be rejected")
	}
}
