package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/matchxai/internal/domain/types"
)

// ExplainDependencies defines the interface for explanation operations.
type ExplainDependencies interface {
	Explain(ctx context.Context, strategy string, v types.Vector) (types.Explanation, error)
	ExplainCombined(ctx context.Context, v types.Vector) (types.CombinedExplanation, error)
	FeatureImportance(ctx context.Context, v types.Vector) ([]types.Importance, error)
}

// ExplainHandler handles explanation requests.
type ExplainHandler struct {
	deps     ExplainDependencies
	maxBytes int64
}

// NewExplainHandler creates a new explain handler.
func NewExplainHandler(deps ExplainDependencies, maxBytes int64) *ExplainHandler {
	return &ExplainHandler{deps: deps, maxBytes: maxBytes}
}

type explanationResponse struct {
	Success bool `json:"success"`
	types.Explanation
}

type combinedResponse struct {
	Success bool `json:"success"`
	types.CombinedExplanation
}

type importanceResponse struct {
	Success  bool               `json:"success"`
	Features []types.Importance `json:"features"`
}

// HandleExplain handles POST /explain/{strategy} requests.
func (h *ExplainHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.explain"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	strategy := strings.TrimPrefix(r.URL.Path, "/explain/")
	if strategy == "" || strings.Contains(strategy, "/") {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	v, err := decodeInstance(w, r, op, h.maxBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	ex, err := h.deps.Explain(r.Context(), strategy, v)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, explanationResponse{Success: true, Explanation: ex})
}

// HandleCombined handles POST /explain/combined requests.
func (h *ExplainHandler) HandleCombined(w http.ResponseWriter, r *http.Request) {
	const op = "api.explain_combined"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	v, err := decodeInstance(w, r, op, h.maxBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.deps.ExplainCombined(r.Context(), v)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, combinedResponse{Success: true, CombinedExplanation: c})
}

// HandleImportance handles POST /explain/importance requests.
func (h *ExplainHandler) HandleImportance(w http.ResponseWriter, r *http.Request) {
	const op = "api.explain_importance"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	v, err := decodeInstance(w, r, op, h.maxBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	features, err := h.deps.FeatureImportance(r.Context(), v)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, importanceResponse{Success: true, Features: features})
}
