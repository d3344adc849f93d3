package handlers

import (
	"net/http"

	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/server/response"
)

// AdminAuthHandlers serves the admin-principal auth endpoints.
type AdminAuthHandlers struct {
	svc   *auth.Service
	audit *audit.Logger
}

func NewAdminAuthHandlers(svc *auth.Service, auditLog *audit.Logger) *AdminAuthHandlers {
	return &AdminAuthHandlers{svc: svc, audit: auditLog}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login answers POST /api/admin/login.
func (h *AdminAuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	admin, tokens, err := h.svc.AdminLogin(r.Context(), auth.AdminLoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		EventType: "admin.login", EntityType: "admin", EntityID: admin.ID, AdminID: admin.ID,
	})
	writeOK(w, r, authResponse{User: admin, Token: toTokenView(tokens)})
}

// Me answers GET /api/admin/me.
func (h *AdminAuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principalID, _ := auth.UserFromContext(r.Context())
	admin, err := h.svc.GetAdminByID(r.Context(), principalID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	writeOK(w, r, admin)
}
