// Package ops serves the worker's operational endpoints: prometheus
// metrics, liveness and a readiness report on the loaded dashboard state.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"insuralytics/internal/cache"
	"insuralytics/internal/log"
	"insuralytics/internal/middleware/trace"
	"insuralytics/internal/target"
)

// Dashboard is the state the readiness report reads.
type Dashboard interface {
	RecordCount() int
	CurrentVersion() *target.Version
	CacheStats() cache.Stats
}

// Status is the /readyz response body.
type Status struct {
	Ready       bool        `json:"ready"`
	Records     int         `json:"records"`
	VersionID   string      `json:"version_id,omitempty"`
	VersionName string      `json:"version_name,omitempty"`
	Cache       cache.Stats `json:"cache"`
}

type Server struct {
	http.Server
	dashboard Dashboard
	trace     *trace.Middleware
}

// NewServer configures routes, returning a ready-to-run server. A nil
// gatherer serves the default prometheus registry.
func NewServer(addr string, dashboard Dashboard, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dashboard: dashboard,
		trace:     trace.NewMiddleware(logger.WithComponent(log.ComponentOps)),
	}

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	s.Handler = s.trace.Wrap(mux)

	return s
}

// Requests returns the traced request counters.
func (s *Server) Requests() trace.Metrics {
	return s.trace.GetMetrics()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 until a target version is installed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.status()
	w.Header().Set("Content-Type", "application/json")
	if !st.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) status() Status {
	if s.dashboard == nil {
		return Status{}
	}
	st := Status{
		Records: s.dashboard.RecordCount(),
		Cache:   s.dashboard.CacheStats(),
	}
	if v := s.dashboard.CurrentVersion(); v != nil {
		st.Ready = true
		st.VersionID = v.ID
		st.VersionName = v.Name
	}
	return st
}
