// Package shapley attributes predictions with exact Shapley values computed
// against a background sample.
package shapley

import (
	"context"
	"fmt"

	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/types"
)

// Name is the strategy identifier.
const Name = "shap"

const coalitions = 1 << types.FeatureCount

// Explainer computes exact Shapley values over every feature coalition.
// A coalition's value is the model output averaged over the background with
// the coalition's features taken from the explained instance.
type Explainer struct {
	background []types.Vector
	weights    [types.FeatureCount + 1]float64
}

var _ attribution.Strategy = (*Explainer)(nil)

// New builds an explainer over a copy of background.
func New(background []types.Vector) (*Explainer, error) {
	if len(background) == 0 {
		return nil, ErrNoBackground
	}
	e := &Explainer{background: append([]types.Vector(nil), background...)}

	// weight of a coalition of size s that excludes the feature: s!(n-s-1)!/n!
	n := types.FeatureCount
	for s := 0; s < n; s++ {
		e.weights[s] = factorial(s) * factorial(n-s-1) / factorial(n)
	}
	return e, nil
}

// Name implements attribution.Strategy.
func (e *Explainer) Name() string { return Name }

// BackgroundSize reports the number of reference vectors.
func (e *Explainer) BackgroundSize() int { return len(e.background) }

// Attribute implements attribution.Strategy. BaseValue is the mean model
// output over the background, and the values sum to f(v) minus that base.
func (e *Explainer) Attribute(ctx context.Context, m model.Predictor, v types.Vector) (attribution.Result, error) {
	var values [coalitions]float64
	for mask := 0; mask < coalitions; mask++ {
		if err := ctx.Err(); err != nil {
			return attribution.Result{}, fmt.Errorf("shapley: %w", err)
		}
		values[mask] = e.coalitionValue(m, v, mask)
	}

	phi := make([]float64, types.FeatureCount)
	for i := range phi {
		bit := 1 << i
		for mask := 0; mask < coalitions; mask++ {
			if mask&bit != 0 {
				continue
			}
			phi[i] += e.weights[popcount(mask)] * (values[mask|bit] - values[mask])
		}
	}

	base := values[0]
	return attribution.Result{BaseValue: &base, PerFeature: phi}, nil
}

func (e *Explainer) coalitionValue(m model.Predictor, v types.Vector, mask int) float64 {
	if mask == coalitions-1 {
		return m.Predict(v)
	}
	var sum float64
	for _, b := range e.background {
		z := b
		for i := 0; i < types.FeatureCount; i++ {
			if mask&(1<<i) != 0 {
				z[i] = v[i]
			}
		}
		sum += m.Predict(z)
	}
	return sum / float64(len(e.background))
}

func popcount(mask int) int {
	c := 0
	for ; mask != 0; mask &= mask - 1 {
		c++
	}
	return c
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
