// Package httpserver exposes the kernel's HTTP/WS surface: creating
// agents, chatting with one over SSE, shelling into its sandbox,
// inspecting its files, relaying its VNC session over a WebSocket, and a
// Prometheus /metrics endpoint. Its shutdown sequence mirrors the
// teacher's server.go: stop accepting new work, then close every live
// agent before the process exits.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sandboxkernel/kernel/internal/agentkernel"
	"github.com/sandboxkernel/kernel/internal/config"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/observability"
	"github.com/sandboxkernel/kernel/internal/searchclient"
)

// Server wires the kernel's Agent Runtime onto an HTTP router.
type Server struct {
	cfg     *config.Config
	runtime *agentkernel.Runtime
	metrics *observability.Metrics
	llm     llm.Provider

	http *http.Server
}

func New(cfg *config.Config, runtime *agentkernel.Runtime, provider llm.Provider, metrics *observability.Metrics) *Server {
	s := &Server{cfg: cfg, runtime: runtime, llm: provider, metrics: metrics}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	r.Post("/agents", s.handleCreateAgent)
	r.Post("/agents/{agentID}/chat", s.handleChat)
	r.Post("/agents/{agentID}/shell", s.handleShellView)
	r.Post("/agents/{agentID}/file", s.handleFileView)
	r.Get("/agents/{agentID}/vnc", s.handleVNC)
	r.Delete("/agents/{agentID}", s.handleDestroyAgent)

	if metrics != nil {
		r.Get("/metrics", metrics.Handler().ServeHTTP)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
	}
	return s
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		route := chi.RouteContext(req.Context()).RoutePattern()
		s.metrics.HTTPRequests.WithLabelValues(route, fmt.Sprintf("%d", ww.Status())).Inc()
		s.metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ListenAndServe starts the HTTP server; it blocks until the server stops.
func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpserver: listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting new requests, then closes every live agent
// (tearing down its sandbox session) before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	s.runtime.CloseAll(ctx)
	return nil
}

// searchClientFor builds a search client from configured credentials, or
// nil when unset.
func searchClientFor(cfg *config.Config) *searchclient.Client {
	if !cfg.HasSearch() {
		return nil
	}
	return searchclient.New(cfg.GoogleSearchAPIKey, cfg.GoogleSearchEngineID)
}
