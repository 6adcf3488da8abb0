// Package api serves the HTTP operations surface: liveness, scheduler
// status and Prometheus metrics. The retune data path does not go through
// this server; it lives on the packet transport.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radio-control/retune/internal/auth"
	"github.com/radio-control/retune/internal/retune"
	"github.com/radio-control/retune/internal/telemetry"
)

// StatusPort is what the server needs from the scheduler.
type StatusPort interface {
	QueueLen() int
}

// TimerPort is what the server needs from the timer service.
type TimerPort interface {
	Armed() int
}

// Server is the HTTP operations server.
type Server struct {
	httpServer *http.Server
	scheduler  StatusPort
	timers     TimerPort
	hub        *telemetry.Hub
	gatherer   prometheus.Gatherer
	authMW     *auth.Middleware
	startTime  time.Time
}

// NewServer creates the operations server. timers, hub, gatherer and authMW
// may be nil; the corresponding surfaces degrade gracefully.
func NewServer(scheduler StatusPort, timers TimerPort, hub *telemetry.Hub, gatherer prometheus.Gatherer, authMW *auth.Middleware) *Server {
	return &Server{
		scheduler: scheduler,
		timers:    timers,
		hub:       hub,
		gatherer:  gatherer,
		authMW:    authMW,
		startTime: time.Now(),
	}
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Handler returns the route mux, for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/status", s.authMW.RequireAuth(s.handleStatus))
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusResponse is the GET /api/v1/status body.
type statusResponse struct {
	QueueDepth    int               `json:"queueDepth"`
	QueueCapacity int               `json:"queueCapacity"`
	TimersArmed   int               `json:"timersArmed"`
	Events        map[string]uint64 `json:"events,omitempty"`
	UptimeSeconds float64           `json:"uptimeSeconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		QueueDepth:    s.scheduler.QueueLen(),
		QueueCapacity: retune.QueueDepth,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}
	if s.timers != nil {
		resp.TimersArmed = s.timers.Armed()
	}
	if s.hub != nil {
		resp.Events = s.hub.Counts()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
