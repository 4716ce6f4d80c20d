// Package lime attributes predictions with a locally weighted linear
// surrogate fitted to perturbations around the explained instance.
package lime

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/types"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Name is the strategy identifier.
const Name = "lime"

// Defaults.
const (
	DefaultSamples = 1000
	DefaultRidge   = 1.0

	ctxCheckEvery = 256
	maxCondition  = 1e12
)

// DefaultKernelWidth is 0.75 * sqrt(number of features).
var DefaultKernelWidth = 0.75 * math.Sqrt(types.FeatureCount)

// dim is the surrogate's parameter count: intercept plus one slope per feature.
const dim = types.FeatureCount + 1

// Explainer fits a weighted ridge surrogate on standardized features.
// Safe for concurrent use; draws from the shared source are serialized.
type Explainer struct {
	mean  types.Vector
	scale types.Vector

	samples     int
	kernelWidth float64
	alpha       float64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ attribution.Strategy = (*Explainer)(nil)

// New derives feature statistics from background and applies opts.
func New(background []types.Vector, opts ...Option) (*Explainer, error) {
	if len(background) == 0 {
		return nil, ErrNoBackground
	}
	e := &Explainer{
		samples:     DefaultSamples,
		kernelWidth: DefaultKernelWidth,
		alpha:       DefaultRidge,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // perturbation noise
	}
	for _, opt := range opts {
		opt(e)
	}

	column := make([]float64, len(background))
	for i := range e.mean {
		for j, b := range background {
			column[j] = b[i]
		}
		e.mean[i], e.scale[i] = stat.PopMeanStdDev(column, nil)
		if e.scale[i] == 0 {
			e.scale[i] = 1
		}
	}
	return e, nil
}

// Name implements attribution.Strategy.
func (e *Explainer) Name() string { return Name }

// Attribute implements attribution.Strategy. BaseValue is the surrogate's
// intercept; each value is slope times the instance's standardized feature.
func (e *Explainer) Attribute(ctx context.Context, m model.Predictor, v types.Vector) (attribution.Result, error) {
	points, err := e.perturb(ctx, v)
	if err != nil {
		return attribution.Result{}, err
	}

	origin := e.standardize(v)
	xtx := mat.NewSymDense(dim, nil)
	xty := mat.NewVecDense(dim, nil)
	for j, z := range points {
		if j%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return attribution.Result{}, fmt.Errorf("lime: %w", err)
			}
		}
		s := e.standardize(z)
		w := e.kernel(distance(s, origin))
		y := m.Predict(z)

		row := [dim]float64{1}
		copy(row[1:], s[:])
		for a := 0; a < dim; a++ {
			xty.SetVec(a, xty.AtVec(a)+w*row[a]*y)
			for b := a; b < dim; b++ {
				xtx.SetSym(a, b, xtx.At(a, b)+w*row[a]*row[b])
			}
		}
	}
	for a := 1; a < dim; a++ {
		xtx.SetSym(a, a, xtx.At(a, a)+e.alpha)
	}

	coef, err := solve(xtx, xty)
	if err != nil {
		return attribution.Result{}, err
	}

	intercept := coef.AtVec(0)
	per := make([]float64, types.FeatureCount)
	for i := range per {
		per[i] = coef.AtVec(i+1) * origin[i]
	}
	return attribution.Result{BaseValue: &intercept, PerFeature: per}, nil
}

// perturb draws the neighbourhood. The first point is v itself.
func (e *Explainer) perturb(ctx context.Context, v types.Vector) ([]types.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lime: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	points := make([]types.Vector, e.samples)
	points[0] = v
	for j := 1; j < len(points); j++ {
		var z types.Vector
		for i := range z {
			z[i] = clamp01(v[i] + e.scale[i]*e.rng.NormFloat64())
		}
		points[j] = z
	}
	return points, nil
}

func (e *Explainer) standardize(v types.Vector) types.Vector {
	var s types.Vector
	for i := range v {
		s[i] = (v[i] - e.mean[i]) / e.scale[i]
	}
	return s
}

func (e *Explainer) kernel(d float64) float64 {
	return math.Sqrt(math.Exp(-(d * d) / (e.kernelWidth * e.kernelWidth)))
}

func distance(a, b types.Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// solve fits the ridge normal equations a x = b by Cholesky factorization.
func solve(a *mat.SymDense, b *mat.VecDense) (*mat.VecDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok || chol.Cond() > maxCondition {
		return nil, ErrSingular
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &x, nil
}
