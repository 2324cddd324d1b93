package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/metrics"
)

const (
	// DefaultMaxBodyBytes bounds the size of an ingest request.
	DefaultMaxBodyBytes = 10 << 20

	shutdownTimeout = 30 * time.Second
)

// Service is the graph surface the HTTP API serves.
type Service interface {
	Ingest(ctx context.Context, docID, text string) (int, error)
	Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error)
	Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Graph, error)
	Export(ctx context.Context) (*core.Graph, error)
	Stats(ctx context.Context) (*core.GraphStats, error)
	Health(ctx context.Context) error
}

// Server routes HTTP requests to a Service.
type Server struct {
	service      Service
	stream       http.Handler
	collector    *metrics.Collector
	validate     *validator.Validate
	maxBodyBytes int64
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithStream mounts h at /stream.
func WithStream(h http.Handler) Option {
	return func(s *Server) error {
		s.stream = h
		return nil
	}
}

// WithMetrics records request metrics on c and serves it at /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) error {
		s.collector = c
		return nil
	}
}

// WithMaxBodyBytes bounds request bodies.
// Default is DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) error {
		if n <= 0 {
			return ErrInvalidMaxBody
		}
		s.maxBodyBytes = n
		return nil
	}
}

// WithTimeouts sets the read and write timeouts of the listening server.
// Zero leaves a timeout unset.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) error {
		s.readTimeout = read
		s.writeTimeout = write
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates a server for service.
func NewServer(service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	s := &Server{
		service:      service,
		validate:     validator.New(),
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")
	return s, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.instrument)

	r.Post("/ingest", s.ingest)
	r.Get("/search", s.search)
	r.Get("/neighbors", s.neighbors)
	r.Get("/graph/export", s.export)
	r.Get("/stats", s.stats)
	r.Get("/health", s.health)
	if s.collector != nil {
		r.Method(http.MethodGet, "/metrics", s.collector.Handler())
	}
	if s.stream != nil {
		r.Method(http.MethodGet, "/stream", s.stream)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", "err", err)
		return err
	}
	return nil
}
