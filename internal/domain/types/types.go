// Package types contains common types used across the application
package types

import (
	"fmt"
	"math"
)

// Feature positions within a Vector. Weights and the synthetic label rule are
// positional, so this order is part of the contract.
const (
	Skills = iota
	Experience
	Location
	Salary

	// FeatureCount is the schema length.
	FeatureCount
)

// percentScale converts between the 0-100 request scale and the internal [0,1] scale.
const percentScale = 100.0

// FeatureNames is the display schema, index-aligned with Vector.
var FeatureNames = [FeatureCount]string{
	"Skills Match",
	"Experience Match",
	"Location Match",
	"Salary Match",
}

// FeatureKeys are the request keys, index-aligned with Vector.
var FeatureKeys = [FeatureCount]string{
	"skills",
	"experience",
	"location",
	"salary",
}

// Vector holds the four match scores in [0,1], ordered as FeatureNames.
type Vector [FeatureCount]float64

// VectorFromSlice copies xs into a Vector. The length must match the schema.
func VectorFromSlice(xs []float64) (Vector, error) {
	var v Vector
	if len(xs) != FeatureCount {
		return v, fmt.Errorf("%w: got %d features, want %d", ErrInputShape, len(xs), FeatureCount)
	}
	copy(v[:], xs)
	return v, nil
}

// Validate reports whether every component is finite and within [0,1].
func (v Vector) Validate() error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInputShape, FeatureKeys[i])
		}
		if x < 0 || x > 1 {
			return fmt.Errorf("%w: %s=%g out of range", ErrInputShape, FeatureKeys[i], x*percentScale)
		}
	}
	return nil
}

// Percent returns the components rescaled to 0-100.
func (v Vector) Percent() Vector {
	var out Vector
	for i, x := range v {
		out[i] = x * percentScale
	}
	return out
}

// ParseInstance converts a decoded JSON instance keyed by FeatureKeys on the
// 0-100 scale into a Vector. Missing or null keys count as 0; unknown keys are
// ignored; anything that is not a JSON number is rejected.
func ParseInstance(raw map[string]any) (Vector, error) {
	var v Vector
	for i, key := range FeatureKeys {
		val, ok := raw[key]
		if !ok || val == nil {
			continue
		}
		f, ok := val.(float64)
		if !ok {
			return v, fmt.Errorf("%w: %s must be a number, got %T", ErrInputShape, key, val)
		}
		v[i] = f / percentScale
	}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// Instance returns v as a request payload on the 0-100 scale.
func (v Vector) Instance() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, key := range FeatureKeys {
		out[key] = v[i] * percentScale
	}
	return out
}
