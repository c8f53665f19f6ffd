// Package server exposes the Eterna archive over a JSON HTTP API.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/blob"
	"github.com/Anika-Jha/Eterna/internal/logging"
	"github.com/Anika-Jha/Eterna/internal/metrics"
)

// DefaultMaxUploadBytes caps image uploads when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// Store is the read side and comment side of the archive.
type Store interface {
	PingContext(ctx context.Context) error
	ListArtifacts(ctx context.Context) ([]artifact.Artifact, error)
	GetArtifact(ctx context.Context, id int64) (*artifact.Artifact, error)
	ListComments(ctx context.Context, artifactID int64) ([]artifact.Comment, error)
	CreateComment(ctx context.Context, artifactID int64, content string) (*artifact.Comment, error)
	SupportComment(ctx context.Context, id int64) (*artifact.Comment, error)
	ReactToComment(ctx context.Context, id int64, r artifact.Reaction) (*artifact.Comment, error)
	Stats(ctx context.Context) (artifact.Stats, error)
}

// Engine performs the artifact mutations. *engine.Engine implements it.
type Engine interface {
	Create(ctx context.Context, in artifact.NewArtifact) (*artifact.Artifact, error)
	Support(ctx context.Context, id int64, action artifact.Action) (*artifact.Artifact, error)
}

// Server is the Eterna HTTP API server.
type Server struct {
	store     Store
	engine    Engine
	blobs     blob.Store
	metrics   *metrics.Metrics
	static    fs.FS
	maxUpload int64
	logger    *slog.Logger
	version   string
	started   time.Time
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithBlobStore enables image uploads.
func WithBlobStore(b blob.Store) Option {
	return func(s *Server) { s.blobs = b }
}

// WithMetrics serves m at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithStatic serves fsys at / with single-page-app fallback.
func WithStatic(fsys fs.FS) Option {
	return func(s *Server) { s.static = fsys }
}

// WithMaxUploadBytes caps upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a new Server.
func New(st Store, eng Engine, version string, opts ...Option) *Server {
	s := &Server{
		store:     st,
		engine:    eng,
		maxUpload: DefaultMaxUploadBytes,
		version:   version,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New("server")
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/artifacts", s.handleListArtifacts)
		r.Post("/artifacts", s.handleCreateArtifact)
		r.Get("/artifacts/{id}", s.handleGetArtifact)
		r.Post("/artifacts/{id}/support", s.handleSupportArtifact)
		r.Get("/artifacts/{id}/comments", s.handleListComments)
		r.Post("/artifacts/{id}/comments", s.handleCreateComment)

		r.Post("/comments/{id}/support", s.handleSupportComment)
		r.Post("/comments/{id}/react", s.handleReactToComment)

		r.Get("/dashboard/stats", s.handleStats)

		r.Post("/uploads", s.handleUpload)
	})

	r.Get("/uploads/{key}", s.handleServeUpload)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	if s.static != nil {
		r.Get("/*", s.spaHandler())
	}

	s.router = r
}

// logRequests writes one debug line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "bytes", ww.BytesWritten(), "took", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.store.PingContext(r.Context()) == nil

	status, label := http.StatusOK, "ok"
	if !dbOK {
		status, label = http.StatusServiceUnavailable, "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  label,
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	})
}
