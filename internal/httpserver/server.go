package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bot-zamovlennya/internal/cache"
	"bot-zamovlennya/internal/metrics"
	"bot-zamovlennya/internal/repo"
	"bot-zamovlennya/internal/sheets"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies exposes core dependencies to handlers that need them.
type Dependencies struct {
	Repository repo.Repository
	Redis      *cache.Redis
	Sheets     *sheets.Client
}

// Server wraps an http.Server with the service's operational endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	deps       Dependencies
}

// New creates a new HTTP server listening on addr with health and metrics
// endpoints. A non-empty basePath mounts everything under that prefix.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, deps Dependencies, basePath string) *Server {
	server := &Server{
		logger:  logger.With("component", "http"),
		metrics: metricRegistry,
		deps:    deps,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", server.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/admin/flush-sheet-cache", server.handleFlushSheetCache)

	handler := http.Handler(r)
	if base := normaliseBasePath(basePath); base != "" {
		root := chi.NewRouter()
		root.Mount(base, r)
		handler = root
		server.logger.Info("http server configured with base path", "base_path", base)
	}

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Repository != nil {
		if err := s.deps.Repository.Ping(r.Context()); err != nil {
			s.logger.Warn("health check repository ping failed", "error", err)
			http.Error(w, "repository unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(r.Context()); err != nil {
			s.logger.Warn("health check redis ping failed", "error", err)
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleFlushSheetCache drops the cached sheet-title list so newly added
// month sheets show up without waiting for the TTL.
func (s *Server) handleFlushSheetCache(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		http.Error(w, "sheets client unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := s.deps.Sheets.FlushTitleCache(r.Context()); err != nil {
		s.logger.Error("failed flushing sheet cache", "error", err)
		if s.metrics != nil {
			s.metrics.Errors.WithLabelValues("http_admin").Inc()
		}
		http.Error(w, "failed flushing sheet cache", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}

func normaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}
