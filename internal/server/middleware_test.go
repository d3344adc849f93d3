package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/swiftbase/swiftbase/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware_WildcardOrigin(t *testing.T) {
	cfg := config.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}}
	handler := CORSMiddleware(cfg)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSMiddleware_PreflightRespondsNoContent(t *testing.T) {
	cfg := config.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "POST"}}
	handler := CORSMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestCORSMiddleware_RejectsUnlistedOrigin(t *testing.T) {
	cfg := config.CORSConfig{Enabled: true, AllowedOrigins: []string{"https://trusted.example"}}
	handler := CORSMiddleware(cfg)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty for an unlisted origin", got)
	}
}

func TestRequestLogMiddleware_AssignsRequestID(t *testing.T) {
	handler := RequestLogMiddleware(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got == "" {
		t.Error("expected X-Request-ID to be set")
	}
}

func TestRequestLogMiddleware_PreservesSuppliedRequestID(t *testing.T) {
	handler := RequestLogMiddleware(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("X-Request-ID = %q, want client-supplied-id", got)
	}
}

func TestRecoveryMiddleware_RecoversPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := RecoveryMiddleware(panicking)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestVersionMiddleware_RejectsUnsupportedVersion(t *testing.T) {
	handler := VersionMiddleware("v1")(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("API-Version", "v2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for an unsupported API-Version", rec.Code)
	}
}

func TestVersionMiddleware_SetsResponseHeaders(t *testing.T) {
	handler := VersionMiddleware("v1")(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("API-Version"); got != "v1" {
		t.Errorf("API-Version header = %q, want v1", got)
	}
}

func TestValidationMiddleware_RejectsDisallowedMethod(t *testing.T) {
	handler := ValidationMiddleware(1024)(okHandler())
	req := httptest.NewRequest("TRACE", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestValidationMiddleware_RejectsOversizedBody(t *testing.T) {
	handler := ValidationMiddleware(4)(okHandler())
	req := httptest.NewRequest("POST", "/", nil)
	req.ContentLength = 1000
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestValidationMiddleware_RejectsNonJSONContentType(t *testing.T) {
	handler := ValidationMiddleware(1024)(okHandler())
	req := httptest.NewRequest("POST", "/api/query", nil)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestValidationMiddleware_AllowsMultipartOnUploadPath(t *testing.T) {
	handler := ValidationMiddleware(1024)(okHandler())
	req := httptest.NewRequest("POST", "/api/storage/upload", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a multipart upload request", rec.Code)
	}
}
