// Package server provides the critpath HTTP service.
//
// # Endpoints
//
//   - POST /v1/schedule - schedule a project posted as JSON, YAML or HCL
//   - GET /health - returns "ok"
//   - GET /metrics - Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/graph"
	"github.com/joshharrison/critpath/internal/metrics"
	"github.com/joshharrison/critpath/internal/project"
	"github.com/joshharrison/critpath/internal/reporter"
)

const (
	defaultListenAddr      = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxBodyBytes    = 1 << 20
)

// Server schedules projects over HTTP. Every request builds its own graph;
// the metrics recorder is the only shared state.
type Server struct {
	addr            string
	logger          *slog.Logger
	recorder        *metrics.Recorder
	strict          bool
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithListenAddr configures the address the server listens on.
func WithListenAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithStrict rejects projects with dangling references, duplicate ids,
// negative durations or empty ids.
func WithStrict(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

// WithMaxBodyBytes limits the size of posted projects.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a Server recording into rec.
func New(rec *metrics.Recorder, opts ...Option) *Server {
	s := &Server{
		addr:            defaultListenAddr,
		logger:          slog.Default(),
		recorder:        rec,
		maxBodyBytes:    defaultMaxBodyBytes,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/schedule", s.handleSchedule)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "ok")
	})
	mux.Handle("GET /metrics", s.recorder.Handler())
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.addr, "strict", s.strict)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := project.Parse(data, requestFormat(r), "request")
	if err != nil {
		s.recorder.ObserveFailure(metrics.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if p.Name == "" {
		p.Name = "request"
	}

	var opts []graph.Option
	if s.strict {
		opts = append(opts, graph.Strict())
	}

	g, result, err := cpm.Compute(p.Rows, opts...)
	if err != nil {
		outcome := metrics.OutcomeInvalid
		if errors.Is(err, graph.ErrCycle) {
			outcome = metrics.OutcomeCycle
		}
		s.recorder.ObserveFailure(outcome)
		s.logger.Info("schedule rejected", "project", p.Name, "outcome", outcome, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	body, err := reporter.New(p.Name, g, result).JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.recorder.ObserveSchedule(g.Len(), result.ProjectDuration)
	s.logger.Debug("scheduled project", "project", p.Name, "activities", g.Len(), "duration", result.ProjectDuration)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// requestFormat picks the project encoding from the Content-Type header,
// defaulting to JSON.
func requestFormat(r *http.Request) project.Format {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return project.FormatJSON
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return project.FormatYAML
	case "application/hcl", "text/hcl":
		return project.FormatHCL
	default:
		return project.FormatJSON
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
