// Package server provides the HTTP API for starting audits, following their
// progress and applying fixes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/seo-auditor/internal/jobs"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/server/middleware"
	"github.com/jonathan/seo-auditor/internal/types"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

// JobRunner starts audits and reports their status.
type JobRunner interface {
	Start(ctx context.Context, siteURL string, maxURLs int) (*types.SiteAuditJob, error)
	Status(ctx context.Context, jobID string) (*types.SiteAuditJob, error)
	Subscribe(jobID string) (<-chan types.SiteAuditJob, func())
}

// FixBatcher applies one fix type to a batch of URLs.
type FixBatcher interface {
	Supports(issueType string) bool
	FixBatch(ctx context.Context, issueType string, urls []string) []types.FixResult
}

// Deps are the collaborators behind the API. Results and Fixes may be nil,
// in which case their routes answer 404 and 503.
type Deps struct {
	Jobs    JobRunner
	Results jobs.ResultStore
	Fixes   FixBatcher
	// Auth guards mutating routes; nil leaves them open.
	Auth   middleware.TokenValidator
	Logger *slog.Logger
}

// Config holds server configuration
type Config struct {
	Port int
	// MaxURLs is the default crawl cap for audits started without one.
	MaxURLs int
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	deps       Deps
	cfg        Config
	validate   *validator.Validate
	logger     *slog.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.New("server")
	}
	s := &Server{
		deps:     deps,
		cfg:      cfg,
		validate: validator.New(),
		logger:   deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(s.withLogging, s.withCORS)

	auth := middleware.AuthMiddleware(deps.Auth)

	r.Get("/health", s.handleHealth)
	r.Route("/audits", func(r chi.Router) {
		r.With(auth).Post("/", s.handleStartAudit)
		r.Get("/{id}", s.handleAuditStatus)
		r.Get("/{id}/events", s.handleAuditEvents)
		r.Get("/{id}/result", s.handleAuditResult)
	})
	r.With(auth).Post("/fixes", s.handleFixes)

	s.router = r
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Fix batches are sequential and event streams are long-lived.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path,
			"remote", r.RemoteAddr, "duration", time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFrom writes an error JSON response with the status mapped from err.
func (s *Server) errorFrom(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.errorResponse(w, status, err.Error())
}
