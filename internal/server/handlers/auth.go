package handlers

import (
	"net/http"

	"github.com/swiftbase/swiftbase/internal/apperr"
	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

// AuthHandlers serves the user-principal auth endpoints.
type AuthHandlers struct {
	svc   *auth.Service
	audit *audit.Logger
}

func NewAuthHandlers(svc *auth.Service, auditLog *audit.Logger) *AuthHandlers {
	return &AuthHandlers{svc: svc, audit: auditLog}
}

func (h *AuthHandlers) Service() *auth.Service { return h.svc }

type registerRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type authResponse struct {
	User  any             `json:"user"`
	Token tokenPairView   `json:"tokens"`
}

type tokenPairView struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

func toTokenView(t *auth.TokenPair) tokenPairView {
	return tokenPairView{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, ExpiresIn: t.ExpiresIn}
}

// Register answers POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	user, tokens, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email: req.Email, Password: req.Password, Metadata: req.Metadata,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		EventType: "user.register", EntityType: "user", EntityID: user.ID, UserID: user.ID,
	})
	writeCreated(w, r, authResponse{User: user, Token: toTokenView(tokens)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login answers POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	user, tokens, err := h.svc.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		EventType: "user.login", EntityType: "user", EntityID: user.ID, UserID: user.ID,
	})
	writeOK(w, r, authResponse{User: user, Token: toTokenView(tokens)})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh answers POST /api/auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		response.WriteError(w, r, apperr.WithField(apperr.KindInvalidInput, "refreshToken", "refreshToken is required"))
		return
	}

	tokens, err := h.svc.Refresh(r.Context(), req.RefreshToken, auth.PrincipalUser)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	writeOK(w, r, toTokenView(tokens))
}

// Logout answers POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := bearerTokenFromRequest(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := h.svc.Logout(r.Context(), token, auth.PrincipalUser); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if principalID, ok := auth.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(), audit.Entry{EventType: "user.logout", EntityType: "user", EntityID: principalID, UserID: principalID})
	}
	writeOK(w, r, map[string]bool{"loggedOut": true})
}

// Me answers GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	user, err := h.svc.Me(r.Context(), principalID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, user)
}

func bearerTokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", apperr.AuthFailure("malformed authorization header")
	}
	return header[len(prefix):], nil
}
