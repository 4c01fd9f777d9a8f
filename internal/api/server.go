package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/curriculum-engine/internal/config"
	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/session"
)

// CatalogService is the catalog as seen by the HTTP layer
type CatalogService interface {
	Ensure(ctx context.Context) []models.Technique
	Reload(ctx context.Context) []models.Technique
	Lookup(id string) (models.Technique, bool)
	Ready() <-chan struct{}
	LoadedAt() time.Time
}

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	catalog        CatalogService
	editors        *session.Registry
	authMiddleware *AuthMiddleware
	checks         map[string]ReadinessCheck
}

// NewServer creates a new API server. A nil client store disables
// authentication.
func NewServer(
	cfg config.ServerConfig,
	catalog CatalogService,
	editors *session.Registry,
	clients ClientStore,
	checks map[string]ReadinessCheck,
) *Server {
	s := &Server{
		config:  cfg,
		catalog: catalog,
		editors: editors,
		checks:  checks,
	}
	if clients != nil {
		s.authMiddleware = NewAuthMiddleware(clients)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	timeout := middleware.Timeout(60 * time.Second)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/catalog", func(r chi.Router) {
			r.Use(timeout)
			r.With(s.require("catalog:read")).Get("/", s.handleGetCatalog)
			r.With(s.require("catalog:write")).Post("/reload", s.handleReloadCatalog)
			r.With(s.require("catalog:read")).Get("/{techniqueId}", s.handleGetTechnique)
		})

		r.Route("/editors", func(r chi.Router) {
			r.With(timeout, s.require("editors:read")).Get("/", s.handleListEditors)
			r.With(timeout, s.require("editors:write")).Post("/", s.handleOpenEditor)

			r.Route("/{id}", func(r chi.Router) {
				// long-lived; no request timeout
				r.With(s.require("editors:read")).Get("/events", s.handleEditorEventsWS)

				r.Group(func(r chi.Router) {
					r.Use(timeout)

					r.With(s.require("editors:read")).Get("/", s.handleGetEditor)
					r.With(s.require("editors:write")).Delete("/", s.handleCloseEditor)

					r.With(s.require("editors:read")).Get("/schedule", s.handleGetSchedule)
					r.With(s.require("editors:write")).Post("/schedule", s.handleGenerateSchedule)

					r.With(s.require("editors:read")).Get("/lessons/{lesson}/techniques", s.handleGetAssignment)
					r.With(s.require("editors:write")).Post("/lessons/{lesson}/techniques", s.handleAddTechnique)
					r.With(s.require("editors:write")).Delete("/lessons/{lesson}/techniques/{techniqueId}", s.handleRemoveTechnique)
					r.With(s.require("editors:write")).Post("/moves", s.handleMoveTechnique)

					r.With(s.require("editors:read")).Get("/stats", s.handleGetStats)
					r.With(s.require("editors:read")).Get("/export", s.handleExport)
					r.With(s.require("editors:write")).Post("/import", s.handleImport)
					r.With(s.require("editors:write")).Post("/save", s.handleSave)
				})
			})
		})
	})

	s.router = r
}

// authenticate applies API key auth when it is configured
func (s *Server) authenticate(next http.Handler) http.Handler {
	if s.authMiddleware == nil {
		return next
	}
	return s.authMiddleware.Authenticate(next)
}

func (s *Server) require(permission string) func(http.Handler) http.Handler {
	if s.authMiddleware == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.authMiddleware.RequirePermission(permission)
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
