package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/types"
)

// Default training configuration constants.
const (
	DefaultHiddenSize   = 8
	DefaultLearningRate = 0.01
	DefaultEpochs       = 10_000
	defaultRandomSeed   = 42
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithHiddenSize sets the number of hidden units.
func WithHiddenSize(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.hidden = n
		}
	}
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(rate float64) Option {
	return func(t *Trainer) {
		if rate > 0 {
			t.learningRate = rate
		}
	}
}

// WithEpochs sets the number of passes over the training set.
func WithEpochs(epochs int) Option {
	return func(t *Trainer) {
		if epochs > 0 {
			t.epochs = epochs
		}
	}
}

// WithSeed sets the seed for weight initialization and shuffling.
func WithSeed(seed int64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// Stats summarizes a training run.
type Stats struct {
	Samples   int
	Epochs    int
	FinalLoss float64 // mean absolute error of the last epoch
	Duration  time.Duration
}

// Trainer fits a Network with stochastic gradient descent.
type Trainer struct {
	hidden       int
	learningRate float64
	epochs       int
	seed         int64
}

// NewTrainer creates a trainer with configuration options.
func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		hidden:       DefaultHiddenSize,
		learningRate: DefaultLearningRate,
		epochs:       DefaultEpochs,
		seed:         defaultRandomSeed,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train fits a fresh network to samples. Cancellation is checked between epochs.
func (t *Trainer) Train(ctx context.Context, samples []model.Sample) (*Network, Stats, error) {
	if len(samples) == 0 {
		return nil, Stats{}, ErrNoSamples
	}
	start := time.Now()
	rng := rand.New(rand.NewSource(t.seed)) //nolint:gosec // deterministic seed for reproducible training
	n := t.initNetwork(rng)

	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	act := make([]float64, n.hidden)
	delta := make([]float64, n.hidden)

	var loss float64
	for epoch := 0; epoch < t.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, fmt.Errorf("training cancelled at epoch %d: %w", epoch, err)
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var total float64
		for _, idx := range order {
			total += t.step(n, samples[idx], act, delta)
		}
		loss = total / float64(len(samples))
	}

	return n, Stats{
		Samples:   len(samples),
		Epochs:    t.epochs,
		FinalLoss: loss,
		Duration:  time.Since(start),
	}, nil
}

// step applies one backpropagation update and returns the absolute error.
func (t *Trainer) step(n *Network, s model.Sample, act, delta []float64) float64 {
	_, out := n.forward(s.Features, act)

	errOut := s.Label - out
	outDelta := errOut * out * (1 - out)

	for h := 0; h < n.hidden; h++ {
		delta[h] = outDelta * n.hiddenOutput[h] * act[h] * (1 - act[h])
	}

	lr := t.learningRate
	for h := 0; h < n.hidden; h++ {
		n.hiddenOutput[h] += lr * outDelta * act[h]
	}
	for i := 0; i < types.FeatureCount; i++ {
		for h := 0; h < n.hidden; h++ {
			n.inputHidden[i][h] += lr * delta[h] * s.Features[i]
		}
	}
	n.biasOutput += lr * outDelta
	for h := 0; h < n.hidden; h++ {
		n.biasHidden[h] += lr * delta[h]
	}

	return math.Abs(errOut)
}

// initNetwork draws Xavier-scaled weights and small biases.
func (t *Trainer) initNetwork(rng *rand.Rand) *Network {
	n := &Network{
		hidden:       t.hidden,
		learningRate: t.learningRate,
		inputHidden:  make([][]float64, types.FeatureCount),
		hiddenOutput: make([]float64, t.hidden),
		biasHidden:   make([]float64, t.hidden),
	}
	inScale := 1 / math.Sqrt(types.FeatureCount)
	for i := range n.inputHidden {
		n.inputHidden[i] = make([]float64, t.hidden)
		for h := range n.inputHidden[i] {
			n.inputHidden[i][h] = (rng.Float64()*2 - 1) * inScale
		}
	}
	outScale := 1 / math.Sqrt(float64(t.hidden))
	for h := range n.hiddenOutput {
		n.hiddenOutput[h] = (rng.Float64()*2 - 1) * outScale
		n.biasHidden[h] = rng.Float64()*0.2 - 0.1
	}
	n.biasOutput = rng.Float64()*0.2 - 0.1
	return n
}
