// Package model contains domain models passed between layers.
package model

import "github.com/okian/matchxai/internal/domain/types"

// Sample is one synthetic training example.
type Sample struct {
	Features types.Vector // match scores in [0,1]
	Label    float64      // synthetic acceptance probability in [0,1]
}

// Predictor maps a feature vector to a fractional acceptance score.
// Implementations must be safe for concurrent use and deterministic once built.
type Predictor interface {
	Predict(v types.Vector) float64
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(v types.Vector) float64

// Predict calls f(v).
func (f PredictorFunc) Predict(v types.Vector) float64 { return f(v) }

// Split separates samples into feature vectors and labels.
func Split(samples []Sample) ([]types.Vector, []float64) {
	xs := make([]types.Vector, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.Features
		ys[i] = s.Label
	}
	return xs, ys
}
