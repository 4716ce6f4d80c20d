// Package simulator generates synthetic training data encoding the
// acceptance rule the predictor is trained to approximate.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/types"
)

// Feature weights of the overall match score, in schema order.
var Weights = types.Vector{0.50, 0.30, 0.15, 0.05}

// Acceptance bands: an overall score at or above floor maps to
// base + u*width. Checked from the highest floor down.
var bands = []struct {
	floor, base, width float64
}{
	{0.80, 0.75, 0.20},
	{0.60, 0.45, 0.30},
	{0.40, 0.15, 0.30},
	{math.Inf(-1), 0.05, 0.15},
}

// Skills override thresholds.
const (
	skillsBoostAt   = 0.90
	skillsBoost     = 0.15
	skillsBoostCap  = 0.98
	skillsPenaltyAt = 0.30
	skillsPenalty   = 0.20
	skillsFloor     = 0.02
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithSeed seeds the simulator's random source.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data, not security sensitive
	}
}

// WithRand injects a random source. The simulator serializes access to it.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// Simulator draws synthetic (features, label) pairs.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a simulator. Without options it is seeded from the clock.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // synthetic data
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns n samples. Non-positive n yields an empty slice.
func (s *Simulator) Generate(n int) []model.Sample {
	if n <= 0 {
		return []model.Sample{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Sample, n)
	for i := range out {
		v := s.drawVector()
		out[i] = model.Sample{Features: v, Label: Acceptance(v, s.rng.Float64())}
	}
	return out
}

// Background returns n feature vectors without labels.
func (s *Simulator) Background(n int) []types.Vector {
	samples := s.Generate(n)
	xs, _ := model.Split(samples)
	return xs
}

func (s *Simulator) drawVector() types.Vector {
	var v types.Vector
	for i := range v {
		v[i] = s.rng.Float64()
	}
	return v
}

// Overall is the weighted match score of v.
func Overall(v types.Vector) float64 {
	var sum float64
	for i, w := range Weights {
		sum += w * v[i]
	}
	return sum
}

// BaseAcceptance maps an overall score to its band, placing it within the
// band by u in [0,1).
func BaseAcceptance(overall, u float64) float64 {
	for _, b := range bands {
		if overall >= b.floor {
			return b.base + u*b.width
		}
	}
	// unreachable: the last band has no floor
	return bands[len(bands)-1].base + u*bands[len(bands)-1].width
}

// Acceptance applies the full labelling rule to v with band draw u.
func Acceptance(v types.Vector, u float64) float64 {
	a := BaseAcceptance(Overall(v), u)

	skills := v[types.Skills]
	if skills >= skillsBoostAt {
		a = math.Min(a+skillsBoost, skillsBoostCap)
	} else if skills < skillsPenaltyAt {
		a = math.Max(a-skillsPenalty, skillsFloor)
	}

	return math.Max(0, math.Min(1, a))
}
