// Package httpapi serves the garden stores over JSON REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"potager/internal/adapters/exports"
	"potager/internal/core"
	"potager/internal/planner"
	"potager/pkg/domain"
)

const maxBodySize = 1 << 20

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArchive archives every exported version document.
func WithArchive(a *exports.Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
		}
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin; empty disables CORS.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

// Server is the HTTP front of the core service.
type Server struct {
	mux        *http.ServeMux
	svc        *core.Service
	archive    *exports.Archive
	logger     *slog.Logger
	metrics    http.Handler
	corsOrigin string
}

// NewServer creates a configured HTTP server.
func NewServer(svc *core.Service, opts ...Option) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		svc:    svc,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Cultures
	s.mux.HandleFunc("GET /cultures", s.handleListCultures)
	s.mux.HandleFunc("GET /cultures/popular", s.handlePopularCrops)
	s.mux.HandleFunc("GET /cultures/{id}", s.handleGetCulture)
	s.mux.HandleFunc("POST /cultures", s.handleCreateCulture)
	s.mux.HandleFunc("POST /cultures/import", s.handleImportCultures)
	s.mux.HandleFunc("PUT /cultures/{id}", s.handleUpdateCulture)
	s.mux.HandleFunc("DELETE /cultures/{id}", s.handleDeleteCulture)

	// Plots
	s.mux.HandleFunc("GET /parcelles", s.handleListPlots)
	s.mux.HandleFunc("GET /parcelles/positions", s.handleListPositions)
	s.mux.HandleFunc("GET /parcelles/{id}", s.handleGetPlot)
	s.mux.HandleFunc("POST /parcelles", s.handleSetCell)
	s.mux.HandleFunc("POST /parcelles/create", s.handleCreatePlot)
	s.mux.HandleFunc("POST /parcelles/position", s.handleSetPosition)
	s.mux.HandleFunc("DELETE /parcelles/{id}", s.handleDeletePlot)

	// Garden
	s.mux.HandleFunc("GET /potager/size", s.handleGardenSize)
	s.mux.HandleFunc("POST /potager/size", s.handleSetGardenSize)

	// Versions
	s.mux.HandleFunc("GET /versions", s.handleListVersions)
	s.mux.HandleFunc("POST /versions", s.handleCreateVersion)
	s.mux.HandleFunc("GET /versions/export/{id}", s.handleExportVersion)
	s.mux.HandleFunc("POST /versions/import", s.handleImportVersion)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	if s.corsOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Export-URL, X-Export-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type violationResponse struct {
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations"`
}

// writeError maps service errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var violation domain.RuleViolationError
	switch {
	case core.IsValidation(err), errors.Is(err, planner.ErrMalformedDocument):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case core.IsNotFound(err):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &violation):
		writeJSON(w, http.StatusConflict, violationResponse{Error: err.Error(), Violations: violation.Result.Violations})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// decode reads a JSON body into dst, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
