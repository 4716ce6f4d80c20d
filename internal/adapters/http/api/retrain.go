package api

import (
	"context"
	"net/http"

	"github.com/okian/matchxai/internal/domain/types"
)

// RetrainDependencies defines the interface for model retraining.
type RetrainDependencies interface {
	Retrain(ctx context.Context) (types.RetrainResult, error)
}

// RetrainHandler handles retrain requests.
type RetrainHandler struct {
	deps RetrainDependencies
}

// NewRetrainHandler creates a new retrain handler.
func NewRetrainHandler(deps RetrainDependencies) *RetrainHandler {
	return &RetrainHandler{deps: deps}
}

// HandleRetrain handles POST /retrain requests. Training runs synchronously.
func (h *RetrainHandler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.retrain"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	res, err := h.deps.Retrain(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
