package server

import (
	"net/http"

	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/metrics"
	"github.com/swiftbase/swiftbase/internal/server/handlers"
)

// Router assembles the mux, the outer middleware chain (applied to
// every request regardless of route), and the per-route auth stage.
type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// setupMiddleware installs the stack in the order spec.md §4.N fixes:
// CORS, request logging, error translation, versioning, validation,
// with metrics recording between request logging and error
// translation. Route-level auth is applied per-route in setupRoutes, last.
func (r *Router) setupMiddleware() {
	r.Use(CORSMiddleware(r.server.cfg.Server.CORS))
	r.Use(RequestLogMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(VersionMiddleware(r.server.cfg.Server.APIVersion))
	r.Use(ValidationMiddleware(r.server.cfg.Server.MaxBodySize))
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	srv := r.server

	health := handlers.NewHealthHandlers(srv.db, srv.hub, srv.version)
	r.mux.HandleFunc("GET /health", health.Health)
	r.mux.HandleFunc("GET /health/db", health.HealthDB)
	r.mux.HandleFunc("GET /api", health.Info)
	r.mux.Handle("GET /metrics", metrics.Handler())

	authHandlers := handlers.NewAuthHandlers(srv.auth, srv.audit)
	r.mux.HandleFunc("POST /api/auth/register", authHandlers.Register)
	r.mux.HandleFunc("POST /api/auth/login", authHandlers.Login)
	r.mux.HandleFunc("POST /api/auth/refresh", authHandlers.Refresh)
	r.mux.Handle("POST /api/auth/logout", r.withAuth(http.HandlerFunc(authHandlers.Logout)))
	r.mux.Handle("GET /api/auth/me", r.withAuth(http.HandlerFunc(authHandlers.Me)))

	adminAuth := handlers.NewAdminAuthHandlers(srv.auth, srv.audit)
	r.mux.HandleFunc("POST /api/admin/login", adminAuth.Login)
	r.mux.Handle("GET /api/admin/me", r.withAdminAuth(http.HandlerFunc(adminAuth.Me)))

	queryHandlers := handlers.NewQueryHandlers(srv.query, srv.audit)
	r.mux.Handle("POST /api/query", r.withAuth(http.HandlerFunc(queryHandlers.Execute)))

	collHandlers := handlers.NewCollectionHandlers(srv.collections, srv.audit)
	r.mux.Handle("POST /api/bulk", r.withAuth(http.HandlerFunc(collHandlers.Bulk)))
	r.mux.Handle("GET /api/admin/collections", r.withAuth(http.HandlerFunc(collHandlers.List)))
	r.mux.Handle("GET /api/admin/collections/{name}", r.withAuth(http.HandlerFunc(collHandlers.Get)))
	r.mux.Handle("GET /api/admin/collections/{name}/stats", r.withAuth(http.HandlerFunc(collHandlers.Stats)))
	r.mux.Handle("POST /api/admin/collections", r.withAdminAuth(http.HandlerFunc(collHandlers.Create)))
	r.mux.Handle("PUT /api/admin/collections/{name}", r.withAdminAuth(http.HandlerFunc(collHandlers.Update)))
	r.mux.Handle("DELETE /api/admin/collections/{name}", r.withAdminAuth(http.HandlerFunc(collHandlers.Delete)))

	storageHandlers := handlers.NewStorageHandlers(srv.storage, srv.audit)
	r.mux.Handle("POST /api/storage/upload", r.withAuth(http.HandlerFunc(storageHandlers.Upload)))
	r.mux.Handle("GET /api/storage/files/{id}", r.withAuth(http.HandlerFunc(storageHandlers.Get)))
	r.mux.Handle("GET /api/storage/files/{id}/info", r.withAuth(http.HandlerFunc(storageHandlers.Info)))
	r.mux.Handle("DELETE /api/storage/files/{id}", r.withAuth(http.HandlerFunc(storageHandlers.Delete)))
	r.mux.Handle("GET /api/storage/files", r.withAuth(http.HandlerFunc(storageHandlers.List)))
	r.mux.Handle("GET /api/storage/search", r.withAuth(http.HandlerFunc(storageHandlers.List)))
	r.mux.Handle("GET /api/storage/stats", r.withAuth(http.HandlerFunc(storageHandlers.Stats)))

	adminHandlers := handlers.NewAdminHandlers(srv.sweeper, srv.registry, srv.hub)
	r.mux.Handle("POST /api/admin/storage/cleanup", r.withAdminAuth(http.HandlerFunc(adminHandlers.StorageCleanup)))
	r.mux.Handle("GET /api/admin/queries", r.withAdminAuth(http.HandlerFunc(adminHandlers.Queries)))
	r.mux.Handle("GET /api/admin/realtime/stats", r.withAdminAuth(http.HandlerFunc(adminHandlers.RealtimeStats)))

	// The realtime hub authenticates connections itself (token query
	// param or bearer header, anonymous fallback); it intentionally
	// sits outside the route-level auth middleware.
	rt := handlers.NewRealtimeHandler(srv.hub)
	r.mux.HandleFunc("GET /api/realtime", rt.ServeWS)
}

// withAuth wraps h with RequireAnyPrincipal, accepting either a user
// or an admin access token ("U" in the §6.1 auth column).
func (r *Router) withAuth(h http.Handler) http.Handler {
	return RequireAnyPrincipal(r.server.auth)(h)
}

// withAdminAuth wraps h with RequireAuth pinned to admin principals
// ("A" in the §6.1 auth column).
func (r *Router) withAdminAuth(h http.Handler) http.Handler {
	return RequireAuth(r.server.auth, auth.PrincipalAdmin)(h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	handler.ServeHTTP(w, req)
}
