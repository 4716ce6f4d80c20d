package api

import (
	"context"
	"net/http"

	"github.com/okian/matchxai/internal/domain/types"
)

// PredictDependencies defines the interface for prediction.
type PredictDependencies interface {
	Predict(ctx context.Context, v types.Vector) (float64, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps     PredictDependencies
	maxBytes int64
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies, maxBytes int64) *PredictHandler {
	return &PredictHandler{deps: deps, maxBytes: maxBytes}
}

type predictResponse struct {
	Success    bool    `json:"success"`
	Prediction float64 `json:"prediction"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	v, err := decodeInstance(w, r, op, h.maxBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.deps.Predict(r.Context(), v)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Success: true, Prediction: p})
}
