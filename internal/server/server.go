package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/swiftbase/swiftbase/internal/audit"
	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/collections"
	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/query"
	"github.com/swiftbase/swiftbase/internal/realtime"
	"github.com/swiftbase/swiftbase/internal/storage"
)

// Version is stamped into the build; overridden via -ldflags in release
// builds.
var Version = "dev"

// Server wires every domain service into a single HTTP/WS front end,
// grounded on spec.md §4.N.
type Server struct {
	cfg     *config.Config
	db      *database.DB
	version string

	auth        *auth.Service
	query       *query.Service
	collections *collections.Service
	storage     *storage.Service
	sweeper     *storage.Sweeper
	registry    *query.CustomRegistry
	hub         *realtime.Hub
	audit       *audit.Logger

	router     *Router
	httpServer *http.Server
}

// New wires all domain services and the HTTP router. db must already be
// open and migrated.
func New(cfg *config.Config, db *database.DB) (*Server, error) {
	srv := &Server{
		cfg:     cfg,
		db:      db,
		version: Version,
	}

	srv.audit = audit.NewLogger(db)
	srv.auth = auth.NewService(db, &cfg.Auth)

	registry, err := query.NewCustomRegistry()
	if err != nil {
		return nil, fmt.Errorf("building custom query registry: %w", err)
	}
	srv.registry = registry

	srv.hub = realtime.NewHub(srv.auth)
	srv.query = query.NewService(db, srv.hub, srv.registry)
	srv.collections = collections.NewService(db, srv.query)

	fsBackend := storage.NewFilesystemBackend(cfg.Storage.Path)
	var backend storage.Backend = fsBackend
	if cfg.Storage.Backend == "s3" {
		s3Backend, err := storage.NewS3Backend(context.Background(), cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("configuring s3 storage backend: %w", err)
		}
		backend = s3Backend
	}

	isAdmin := func(ctx context.Context, principalID string) bool {
		_, err := srv.auth.GetAdminByID(ctx, principalID)
		return err == nil
	}
	srv.storage = storage.NewService(db, backend, cfg.Storage.MaxFileSize, cfg.Storage.CompressAbove, isAdmin)
	// The orphan sweep only understands the filesystem backend's
	// directory walk; an S3 deployment skips scheduled sweeping.
	srv.sweeper = storage.NewSweeper(db, fsBackend, cfg.Storage.SweepSchedule)

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv, nil
}

// Start runs the file sweeper (not with the S3 backend) and blocks
// serving HTTP until the context is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Str("addr", s.cfg.Server.Address()).Msg("starting server")

	if s.cfg.Storage.Backend != "s3" {
		if err := s.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("starting storage sweeper: %w", err)
		}
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, closes every realtime connection,
// and stops the background sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	s.sweeper.Stop()
	s.hub.Shutdown(ctx)

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) DB() *database.DB               { return s.db }
func (s *Server) Config() *config.Config          { return s.cfg }
func (s *Server) Auth() *auth.Service             { return s.auth }
func (s *Server) Query() *query.Service           { return s.query }
func (s *Server) Collections() *collections.Service { return s.collections }
func (s *Server) Storage() *storage.Service       { return s.storage }
func (s *Server) Hub() *realtime.Hub              { return s.hub }
func (s *Server) Audit() *audit.Logger            { return s.audit }
func (s *Server) Registry() *query.CustomRegistry { return s.registry }
