// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/tinylink/tinylink/internal/config"
	"github.com/tinylink/tinylink/internal/handlers"
	"github.com/tinylink/tinylink/internal/metrics"
	"github.com/tinylink/tinylink/internal/middleware"
	"github.com/tinylink/tinylink/pkg/logger"
)

// Handlers groups the route handlers the server mounts. Web, Redirect and
// API may be nil, in which case their routes answer 503.
type Handlers struct {
	Health   *handlers.HealthHandler
	Web      *handlers.WebHandler
	Redirect *handlers.RedirectHandler
	API      *handlers.URLHandler
}

// Server represents the HTTP server.
type Server struct {
	cfg        *config.Config
	log        *logger.Logger
	handlers   Handlers
	httpServer *http.Server
	listener   net.Listener
	running    bool
	mu         sync.RWMutex
}

// New creates a new Server instance.
func New(cfg *config.Config, log *logger.Logger, h Handlers) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if h.Health == nil {
		h.Health = handlers.NewHealthHandler()
	}
	s := &Server{cfg: cfg, log: log, handlers: h}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	chain := middleware.Standard(middleware.Options{
		Logger:         log,
		TrustProxy:     cfg.Server.TrustProxy,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      chain.Then(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// registerRoutes sets up the HTTP routes. Literal paths win over the
// "/{code}" wildcard in ServeMux precedence.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handlers.Health.Health)
	mux.HandleFunc("GET /ready", s.handlers.Health.Ready)
	mux.Handle("GET /metrics", metrics.Handler())

	web := s.handlers.Web
	mux.HandleFunc("GET /{$}", s.guard(web != nil, func(w http.ResponseWriter, r *http.Request) { web.Index(w, r) }))
	mux.HandleFunc("POST /shorten", s.guard(web != nil, func(w http.ResponseWriter, r *http.Request) { web.Shorten(w, r) }))
	mux.HandleFunc("GET /u/{code}", s.guard(web != nil, func(w http.ResponseWriter, r *http.Request) { web.Show(w, r) }))

	api := s.handlers.API
	mux.HandleFunc("GET /api/list", s.guard(api != nil, func(w http.ResponseWriter, r *http.Request) { api.List(w, r) }))
	mux.HandleFunc("POST /api/shorten", s.guard(api != nil, func(w http.ResponseWriter, r *http.Request) { api.Shorten(w, r) }))
	mux.HandleFunc("GET /api/urls/{code}", s.guard(api != nil, func(w http.ResponseWriter, r *http.Request) { api.GetURL(w, r) }))

	redirect := s.handlers.Redirect
	mux.HandleFunc("GET /{code}", s.guard(redirect != nil, func(w http.ResponseWriter, r *http.Request) { redirect.Redirect(w, r) }))
}

// guard answers 503 when the handler behind a route was not configured.
func (s *Server) guard(configured bool, fn http.HandlerFunc) http.HandlerFunc {
	if configured {
		return fn
	}
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service not configured", http.StatusServiceUnavailable)
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.log.Info("server starting", "address", listener.Addr().String())

	err = s.httpServer.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown marks the server unready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	s.handlers.Health.SetReady(false)

	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("shutdown error", "error", err)
		return err
	}

	s.log.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the listener address once Start has bound it.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// HealthHandler returns the health handler.
func (s *Server) HealthHandler() *handlers.HealthHandler {
	return s.handlers.Health
}
