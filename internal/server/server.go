// Package server exposes the agent's HTTP API: the latest diagnostic
// report (text and structured), health probes, and self-metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/matera-dldn/qualisentinel/internal/agent"
	"github.com/matera-dldn/qualisentinel/internal/health"
	"github.com/matera-dldn/qualisentinel/internal/logging"
)

// Server serves the agent API.
type Server struct {
	srv *http.Server
}

// New builds the API server. metricsHandler may be nil to omit /metrics.
func New(addr string, poller *agent.Poller, metricsHandler http.Handler, checker *health.Checker) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /report", reportHandler(poller))
	mux.HandleFunc("GET /report.json", reportJSONHandler(poller))
	mux.HandleFunc("GET /live", checker.LiveHandler())
	mux.HandleFunc("GET /ready", checker.ReadyHandler())
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           gzhttp.GzipHandler(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	logging.Info("api server started", logging.F("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func reportHandler(poller *agent.Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := poller.Latest()
		if !ok {
			http.Error(w, "nenhum ciclo de diagnóstico concluído ainda", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(rep.Content))
	}
}

func reportJSONHandler(poller *agent.Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := poller.Latest()
		if !ok {
			http.Error(w, `{"error":"nenhum ciclo de diagnóstico concluído ainda"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rep)
	}
}
