// Package attribution defines the contract attribution strategies satisfy and
// normalizes their raw output into ranked, percentage-scale attributions.
package attribution

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/types"
)

// percentPoints converts fractional attributions to percentage points.
const percentPoints = 100.0

// Result is a strategy's raw output. PerFeature is index-aligned with the
// feature schema and expressed in the model's fractional output units.
type Result struct {
	BaseValue  *float64
	PerFeature []float64
}

// Strategy attributes one prediction of model to the features of v.
// Implementations return values already aligned by schema index.
type Strategy interface {
	Name() string
	Attribute(ctx context.Context, m model.Predictor, v types.Vector) (Result, error)
}

// Ranked holds normalized attributions ordered by importance, most important first.
type Ranked []types.FeatureAttribution

// Normalize rescales r to percentage points and ranks it by importance.
// Equal importances keep schema order.
func Normalize(r Result, v types.Vector) (Ranked, error) {
	if len(r.PerFeature) != types.FeatureCount {
		return nil, fmt.Errorf("%w: %d attributions for %d features", ErrShapeMismatch, len(r.PerFeature), types.FeatureCount)
	}

	ranked := make(Ranked, types.FeatureCount)
	for i, raw := range r.PerFeature {
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, fmt.Errorf("%w: %s", ErrNonFinite, types.FeatureNames[i])
		}
		c := raw * percentPoints
		ranked[i] = types.FeatureAttribution{
			Index:        i,
			Name:         types.FeatureNames[i],
			Value:        v[i] * percentPoints,
			Contribution: c,
			Importance:   math.Abs(c),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked, nil
}

// Contributions returns the contributions back in schema order.
func (r Ranked) Contributions() []float64 {
	out := make([]float64, types.FeatureCount)
	for _, f := range r {
		out[f.Index] = f.Contribution
	}
	return out
}

// Top returns at most n leading entries.
func (r Ranked) Top(n int) Ranked {
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	return r[:n]
}

// BasePercent returns the base value in percentage points, or nil.
func (r Result) BasePercent() *float64 {
	if r.BaseValue == nil {
		return nil
	}
	b := *r.BaseValue * percentPoints
	return &b
}
