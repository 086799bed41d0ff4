package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paulsava/cpg"
	"github.com/paulsava/cpg/pkg/orchestrator"
	"github.com/paulsava/cpg/pkg/passes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the interface the HTTP adapter needs from the core.
type Engine interface {
	RunPass(ctx context.Context, passID, nodeID string) (*orchestrator.Result, error)
	Status() cpg.Status
	Catalog() *passes.Catalog
}

// RunRequest is the body of POST /v1/passes/run.
type RunRequest struct {
	PassID string `json:"pass_id"`
	NodeID string `json:"node_id"`
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine Engine
}

// NewHandler creates the HTTP handler. When gatherer is non-nil, prometheus
// metrics are served on /metrics.
func NewHandler(engine Engine, gatherer prometheus.Gatherer) http.Handler {
	s := &Server{engine: engine}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/passes", s.handleListPasses)
	r.Post("/v1/passes/run", s.handleRunPass)

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleListPasses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog().List())
}

func (s *Server) handleRunPass(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PassID == "" || req.NodeID == "" {
		http.Error(w, "pass_id and node_id are required", http.StatusBadRequest)
		return
	}

	res, err := s.engine.RunPass(r.Context(), req.PassID, req.NodeID)
	status := http.StatusOK
	if err != nil {
		// The request failed but the partial log is still meaningful.
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
