// Package rules provides a model-free attribution that scores each feature's
// deviation from neutral by its weight in the acceptance rule.
package rules

import (
	"context"

	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/simulator"
	"github.com/okian/matchxai/internal/domain/types"
)

// Name is the strategy identifier.
const Name = "rules"

// Neutral is the match score that contributes nothing; it is also the base value.
const Neutral = 0.5

// Explainer attributes by weight_i * (x_i - Neutral). It ignores the model,
// so it keeps working when no trained model is available.
type Explainer struct{}

var _ attribution.Strategy = Explainer{}

// Name implements attribution.Strategy.
func (Explainer) Name() string { return Name }

// Attribute implements attribution.Strategy.
func (Explainer) Attribute(ctx context.Context, _ model.Predictor, v types.Vector) (attribution.Result, error) {
	if err := ctx.Err(); err != nil {
		return attribution.Result{}, err
	}
	per := make([]float64, types.FeatureCount)
	for i, w := range simulator.Weights {
		per[i] = w * (v[i] - Neutral)
	}
	base := Neutral
	return attribution.Result{BaseValue: &base, PerFeature: per}, nil
}
