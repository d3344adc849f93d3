package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
)

func testAuthHandlers(t *testing.T) *AuthHandlers {
	t.Helper()
	db := testHealthDB(t)
	svc := auth.NewService(db, &config.AuthConfig{
		JWT: config.JWTConfig{
			Secret: "testsecret12345678901234567890123456", Issuer: "swiftbase-test",
			AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour,
		},
		Password:          config.PasswordConfig{MinLength: 8},
		AllowRegistration: true,
	})
	return NewAuthHandlers(svc, audit.NewLogger(db))
}

func TestAuthHandlers_Register(t *testing.T) {
	h := testAuthHandlers(t)
	body, _ := json.Marshal(registerRequest{Email: "alice@example.com", Password: "password123"})
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandlers_Login(t *testing.T) {
	h := testAuthHandlers(t)
	reg, _ := json.Marshal(registerRequest{Email: "bob@example.com", Password: "password123"})
	regReq := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(reg))
	h.Register(httptest.NewRecorder(), regReq)

	body, _ := json.Marshal(loginRequest{Email: "bob@example.com", Password: "password123"})
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandlers_Login_WrongPassword(t *testing.T) {
	h := testAuthHandlers(t)
	reg, _ := json.Marshal(registerRequest{Email: "carol@example.com", Password: "password123"})
	h.Register(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(reg)))

	body, _ := json.Marshal(loginRequest{Email: "carol@example.com", Password: "wrongpassword"})
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code == 200 {
		t.Fatal("expected login with a wrong password to fail")
	}
}

func TestAuthHandlers_Refresh_RejectsEmptyToken(t *testing.T) {
	h := testAuthHandlers(t)
	body, _ := json.Marshal(refreshRequest{RefreshToken: ""})
	req := httptest.NewRequest("POST", "/api/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400 for an empty refresh token", rec.Code)
	}
}

func TestAuthHandlers_Me(t *testing.T) {
	h := testAuthHandlers(t)
	reg, _ := json.Marshal(registerRequest{Email: "dana@example.com", Password: "password123"})
	regRec := httptest.NewRecorder()
	h.Register(regRec, httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(reg)))

	var resp struct {
		Data authResponse `json:"data"`
	}
	if err := json.Unmarshal(regRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}

	var user struct {
		ID string `json:"id"`
	}
	data, _ := json.Marshal(resp.Data.User)
	if err := json.Unmarshal(data, &user); err != nil {
		t.Fatalf("decoding user: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), user.ID))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}
