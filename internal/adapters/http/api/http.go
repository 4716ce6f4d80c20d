// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/matchxai/internal/domain/types"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	ExplainDependencies
	RetrainDependencies
	HealthDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	explainHandler *ExplainHandler
	retrainHandler *RetrainHandler
}

// NewServer creates a new API server with all handlers. A non-positive
// maxBodyBytes selects DefaultMaxBodyBytes.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBodyBytes int64) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps, maxBodyBytes),
		explainHandler: NewExplainHandler(deps, maxBodyBytes),
		retrainHandler: NewRetrainHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/explain/combined", MetricsMiddleware(s.explainHandler.HandleCombined, "explain_combined"))
	mux.HandleFunc("/explain/importance", MetricsMiddleware(s.explainHandler.HandleImportance, "explain_importance"))
	mux.HandleFunc("/explain/", MetricsMiddleware(s.explainHandler.HandleExplain, "explain"))
	mux.HandleFunc("/retrain", MetricsMiddleware(s.retrainHandler.HandleRetrain, "retrain"))
}

type errorResponse struct {
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Strategy string `json:"strategy,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err in the error envelope with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	status, code, strategy := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Strategy: strategy})
}

// decodeInstance reads a feature instance on the 0-100 scale from the body.
func decodeInstance(w http.ResponseWriter, r *http.Request, op string, limit int64) (types.Vector, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.Vector{}, WrapKind(op, ErrBadRequest, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit))
		}
		return types.Vector{}, WrapKind(op, ErrBadRequest, err)
	}
	if raw == nil {
		return types.Vector{}, NewKind(op, ErrBadRequest)
	}
	v, err := types.ParseInstance(raw)
	if err != nil {
		return types.Vector{}, Wrap(op, err)
	}
	return v, nil
}

func requireMethod(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, NewKind(op, ErrMethodNotAllowed))
	return false
}
