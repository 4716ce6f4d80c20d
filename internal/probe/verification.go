package probe

import (
	"fmt"
	"math"

	"github.com/okian/matchxai/internal/domain/types"
)

// VerifyPrediction checks that p is a percentage.
func VerifyPrediction(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("%w: prediction %g outside [0,100]", ErrInvariant, p)
	}
	return nil
}

// VerifyExplanation checks one single-strategy response: vector lengths,
// the absolute-sum scaling between attributions and contributions, ranking
// order and the composed text.
func VerifyExplanation(ex types.Explanation) error {
	if err := VerifyPrediction(ex.Prediction); err != nil {
		return err
	}
	if len(ex.AttributionValues) != types.FeatureCount || len(ex.Contributions) != types.FeatureCount {
		return fmt.Errorf("%w: %s returned %d attributions and %d contributions",
			ErrInvariant, ex.Strategy, len(ex.AttributionValues), len(ex.Contributions))
	}
	if len(ex.Features) != types.FeatureCount {
		return fmt.Errorf("%w: %s ranked %d features", ErrInvariant, ex.Strategy, len(ex.Features))
	}

	var sumAttr, sumContrib float64
	for i := range ex.AttributionValues {
		sumAttr += math.Abs(ex.AttributionValues[i])
		sumContrib += math.Abs(ex.Contributions[i])
	}
	if diff := math.Abs(sumContrib - sumAttr*100); diff > sumTolerance*math.Max(1, sumContrib) {
		return fmt.Errorf("%w: %s contributions sum %g, attributions sum %g",
			ErrInvariant, ex.Strategy, sumContrib, sumAttr)
	}

	for i := 1; i < len(ex.Features); i++ {
		if ex.Features[i].Importance > ex.Features[i-1].Importance {
			return fmt.Errorf("%w: %s features not sorted at %d", ErrInvariant, ex.Strategy, i)
		}
	}
	for _, f := range ex.Features {
		if math.Abs(f.Importance-math.Abs(f.Contribution)) > sumTolerance {
			return fmt.Errorf("%w: %s importance of %s is not |contribution|", ErrInvariant, ex.Strategy, f.Name)
		}
	}

	if ex.Explanation == "" {
		return fmt.Errorf("%w: %s explanation text is empty", ErrInvariant, ex.Strategy)
	}
	if ex.Strategy == CallRules && (ex.BaseValue == nil || math.Abs(*ex.BaseValue-rulesBasePercent) > sumTolerance) {
		return fmt.Errorf("%w: rules base value is not %g", ErrInvariant, rulesBasePercent)
	}
	return nil
}

// VerifyCombined checks both halves and the agreement bounds.
func VerifyCombined(c types.CombinedExplanation) error {
	if err := VerifyExplanation(c.SHAP); err != nil {
		return err
	}
	if err := VerifyExplanation(c.LIME); err != nil {
		return err
	}
	if math.IsNaN(c.Agreement) || c.Agreement < -1 || c.Agreement > 1 {
		return fmt.Errorf("%w: agreement %g outside [-1,1]", ErrInvariant, c.Agreement)
	}
	if c.SHAP.Prediction != c.LIME.Prediction {
		return fmt.Errorf("%w: shap and lime disagree on the prediction (%g vs %g)",
			ErrInvariant, c.SHAP.Prediction, c.LIME.Prediction)
	}
	return nil
}
