// Package server implements the Permitscope HTTP API.
//
// The API exposes the same pipeline as the CLI: directory users, built and
// laid-out access graphs in several formats, and saved-view CRUD. All
// responses are JSON except graph exports, which honor the requested
// format's content type.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/permitscope/permitscope/pkg/config"
	"github.com/permitscope/permitscope/pkg/pipeline"
	"github.com/permitscope/permitscope/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	router chi.Router
}

// New creates the server and mounts all routes. store may be nil to
// disable the saved-view endpoints; logger may be nil.
func New(runner *pipeline.Runner, views store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  views,
		logger: logger,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/users", s.handleUsers)
		r.Get("/graph/pages", s.handleGraphPages)
		r.Get("/graph/users/{id}", s.handleGraphUser)

		if s.store != nil {
			r.Route("/views", func(r chi.Router) {
				r.Get("/", s.handleListViews)
				r.Post("/", s.handleCreateView)
				r.Get("/{id}", s.handleGetView)
				r.Put("/{id}", s.handleUpdateView)
				r.Delete("/{id}", s.handleDeleteView)
				r.Get("/{id}/graph", s.handleViewGraph)
			})
		}
	})
}

// Run starts the server with the configured timeouts and shuts it down
// cleanly when ctx is cancelled.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
