// Package server provides the HTTP API for the counsellor service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/chat"
	"github.com/alnada/counsellor/internal/config"
	"github.com/alnada/counsellor/internal/index"
	"github.com/alnada/counsellor/internal/session"
	"github.com/alnada/counsellor/internal/store"
	"github.com/alnada/counsellor/internal/upstream"
)

// Server is the HTTP server for the counsellor API.
type Server struct {
	aggregator *upstream.Aggregator
	gateway    *upstream.Gateway
	engine     *chat.Engine
	sessions   *session.Manager
	indexes    *index.Cache
	store      store.Store
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	aggregator *upstream.Aggregator,
	gateway *upstream.Gateway,
	engine *chat.Engine,
	sessions *session.Manager,
	indexes *index.Cache,
	st store.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		aggregator: aggregator,
		gateway:    gateway,
		engine:     engine,
		sessions:   sessions,
		indexes:    indexes,
		store:      st,
		config:     cfg,
		logger:     logger,
	}
}

// Router assembles the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/auth", s.handleLogin)
	r.Get("/api/v1/auth", s.handleGetStudent)
	r.Post("/api/v1/verify", s.handleVerifyToken)
	r.Post("/api/v1/chat", s.handleChat)
	r.Post("/api/v1/session/restart", s.handleRestartSession)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
