package lime

import "math/rand"

// Option applies a configuration option to the Explainer.
type Option func(*Explainer)

// WithSamples sets the number of perturbed samples per explanation.
func WithSamples(n int) Option {
	return func(e *Explainer) {
		if n > 1 {
			e.samples = n
		}
	}
}

// WithKernelWidth sets the width of the exponential proximity kernel.
func WithKernelWidth(w float64) Option {
	return func(e *Explainer) {
		if w > 0 {
			e.kernelWidth = w
		}
	}
}

// WithRidge sets the L2 penalty of the surrogate fit.
func WithRidge(alpha float64) Option {
	return func(e *Explainer) {
		if alpha >= 0 {
			e.alpha = alpha
		}
	}
}

// WithSeed seeds the perturbation source.
func WithSeed(seed int64) Option {
	return func(e *Explainer) {
		e.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible perturbations
	}
}
