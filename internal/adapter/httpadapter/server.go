// Package httpadapter exposes the optional status endpoints served while an
// assembly run is in flight.
package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusReporter tracks the current pipeline stage for the /statusz route.
type StatusReporter struct {
	stage atomic.Value
}

// NewStatusReporter starts in the "idle" stage.
func NewStatusReporter() *StatusReporter {
	r := &StatusReporter{}
	r.stage.Store("idle")
	return r
}

// SetStage records the pipeline stage currently running.
func (r *StatusReporter) SetStage(stage string) {
	r.stage.Store(stage)
}

// Stage returns the last recorded stage.
func (r *StatusReporter) Stage() string {
	return r.stage.Load().(string)
}

// Server exposes health, status, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /statusz, and /metrics
// routes.
func NewServer(addr string, status *StatusReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	// The Go 1.21 ServeMux has no method patterns; getOnly replicates the
	// "GET /path" behavior of newer muxes.
	getOnly := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				w.Header().Set("Allow", http.MethodGet)
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
	mux.Handle("/healthz", getOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})))
	mux.Handle("/statusz", getOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"stage": status.Stage()})
	})))
	mux.Handle("/metrics", getOnly(promhttp.Handler()))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
