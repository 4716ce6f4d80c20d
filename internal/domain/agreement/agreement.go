// Package agreement measures how closely two attribution vectors agree.
package agreement

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Pearson returns the correlation coefficient of a and b in [-1, 1].
// Empty input and zero variance in either vector both yield 0.
func Pearson(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	if stat.PopVariance(a, nil) == 0 || stat.PopVariance(b, nil) == 0 {
		return 0, nil
	}

	// the deviations are scaled separately so large magnitudes cannot overflow
	r := stat.Covariance(a, b, nil) / (stat.StdDev(a, nil) * stat.StdDev(b, nil))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, nil
	}
	return math.Max(-1, math.Min(1, r)), nil
}
