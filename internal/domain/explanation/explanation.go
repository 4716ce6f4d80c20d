// Package explanation renders ranked attributions as a short summary.
package explanation

import (
	"fmt"
	"strings"

	"github.com/okian/matchxai/internal/domain/attribution"
)

// Composition constants.
const (
	TopFeatures = 3
	Separator   = " • "

	// strongThreshold is in percentage points; the boundary itself is "slight".
	strongThreshold = 5.0
)

// Impact labels.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
	ImpactNeutral  = "neutral"
)

// Compose summarizes the top features of ranked, one clause each.
func Compose(ranked attribution.Ranked) string {
	top := ranked.Top(TopFeatures)
	clauses := make([]string, 0, len(top))
	for _, f := range top {
		clauses = append(clauses, Clause(f.Name, f.Contribution))
	}
	return strings.Join(clauses, Separator)
}

// Clause describes one feature's contribution c in percentage points.
func Clause(name string, c float64) string {
	switch {
	case c > strongThreshold:
		return fmt.Sprintf("✅ %s strongly increases acceptance (+%.1f%%)", name, c)
	case c > 0:
		return fmt.Sprintf("✅ %s slightly increases acceptance (+%.1f%%)", name, c)
	case c < -strongThreshold:
		return fmt.Sprintf("❌ %s significantly decreases acceptance (%.1f%%)", name, c)
	case c < 0:
		return fmt.Sprintf("⚠️ %s slightly decreases acceptance (%.1f%%)", name, c)
	default:
		return fmt.Sprintf("➖ %s has minimal impact (~0%%)", name)
	}
}

// Impact classifies the sign of a contribution.
func Impact(c float64) string {
	switch {
	case c > 0:
		return ImpactPositive
	case c < 0:
		return ImpactNegative
	default:
		return ImpactNeutral
	}
}
