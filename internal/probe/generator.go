package probe

import (
	"math"

	"github.com/okian/matchxai/internal/domain/simulator"
)

// GenerateInstances draws n request payloads on the 0-100 scale from the
// same distribution the service trains on. Values are rounded to two
// decimals so they read well in logs.
func GenerateInstances(n int, seed int64) []map[string]float64 {
	sim := simulator.New(simulator.WithSeed(seed))
	vectors := sim.Background(n)

	out := make([]map[string]float64, len(vectors))
	for i, v := range vectors {
		inst := v.Instance()
		for k, x := range inst {
			inst[k] = math.Round(x*100) / 100
		}
		out[i] = inst
	}
	return out
}
