package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/matchxai/internal/adapters/explainers/lime"
	"github.com/okian/matchxai/internal/adapters/explainers/rules"
	"github.com/okian/matchxai/internal/adapters/explainers/shapley"
	"github.com/okian/matchxai/internal/domain/agreement"
	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/explanation"
	"github.com/okian/matchxai/internal/domain/model"
	"github.com/okian/matchxai/internal/domain/simulator"
	"github.com/okian/matchxai/internal/domain/types"
	"github.com/okian/matchxai/pkg/logger"
	"github.com/okian/matchxai/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// CombinedMessage accompanies every combined explanation.
const CombinedMessage = "SHAP shows global feature importance, LIME shows local approximation"

// Strategies lists the strategy names Explain accepts.
var Strategies = []string{shapley.Name, lime.Name, rules.Name}

// fallbackPredictor scores with the acceptance rule's weighted overall when
// no trained model is loaded. Only the rules strategy uses it.
var fallbackPredictor = model.PredictorFunc(simulator.Overall)

// Predict returns the acceptance prediction for v in percent.
func (s *Service) Predict(ctx context.Context, v types.Vector) (float64, error) {
	if err := v.Validate(); err != nil {
		return 0, err
	}
	e, err := s.snapshot()
	if err != nil {
		return 0, err
	}
	p := e.network.Predict(v) * 100
	s.predictions.Add(1)
	metrics.RecordPrediction(p)
	s.log().Debug(ctx, "prediction served", logger.Float64("prediction", p))
	return p, nil
}

// Explain runs the named strategy against v.
func (s *Service) Explain(ctx context.Context, strategy string, v types.Vector) (types.Explanation, error) {
	if !knownStrategy(strategy) {
		return types.Explanation{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if err := v.Validate(); err != nil {
		return types.Explanation{}, err
	}

	e := s.current.Load()
	if e == nil {
		if strategy != rules.Name {
			return types.Explanation{}, ErrModelUnavailable
		}
		out, _, err := s.explainWith(ctx, rules.Explainer{}, fallbackPredictor, v)
		return out, err
	}
	out, _, err := s.explainWith(ctx, e.strategies[strategy], e.network, v)
	return out, err
}

// ExplainCombined runs the Shapley and LIME paths concurrently on the same
// model snapshot and scores their agreement.
func (s *Service) ExplainCombined(ctx context.Context, v types.Vector) (types.CombinedExplanation, error) {
	if err := v.Validate(); err != nil {
		return types.CombinedExplanation{}, err
	}
	e, err := s.snapshot()
	if err != nil {
		return types.CombinedExplanation{}, err
	}

	var (
		out                    types.CombinedExplanation
		shapRanked, limeRanked attribution.Ranked
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.SHAP, shapRanked, err = s.explainWith(gctx, e.strategies[shapley.Name], e.network, v)
		return err
	})
	g.Go(func() error {
		var err error
		out.LIME, limeRanked, err = s.explainWith(gctx, e.strategies[lime.Name], e.network, v)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.CombinedExplanation{}, err
	}

	r, err := agreement.Pearson(shapRanked.Contributions(), limeRanked.Contributions())
	if err != nil {
		return types.CombinedExplanation{}, fmt.Errorf("agreement: %w", err)
	}
	out.Agreement = r
	out.Message = CombinedMessage
	metrics.RecordAgreement(r)
	return out, nil
}

// FeatureImportance summarizes the Shapley attribution of v per feature,
// most important first.
func (s *Service) FeatureImportance(ctx context.Context, v types.Vector) ([]types.Importance, error) {
	ex, err := s.Explain(ctx, shapley.Name, v)
	if err != nil {
		return nil, err
	}
	out := make([]types.Importance, len(ex.Features))
	for i, f := range ex.Features {
		out[i] = types.Importance{
			Feature:    f.Name,
			Importance: f.Importance,
			Impact:     explanation.Impact(f.Contribution),
		}
	}
	return out, nil
}

func (s *Service) explainWith(ctx context.Context, st attribution.Strategy, m model.Predictor, v types.Vector) (types.Explanation, attribution.Ranked, error) {
	name := st.Name()
	start := time.Now()
	defer func() {
		metrics.RecordExplanationLatency(name, float64(time.Since(start).Microseconds())/1000)
	}()

	res, err := st.Attribute(ctx, m, v)
	if err == nil {
		var ranked attribution.Ranked
		ranked, err = attribution.Normalize(res, v)
		if err == nil {
			s.explained.Add(1)
			metrics.RecordExplanation(name, "success")
			return types.Explanation{
				Strategy:          name,
				Prediction:        m.Predict(v) * 100,
				BaseValue:         res.BasePercent(),
				AttributionValues: append([]float64(nil), res.PerFeature...),
				Contributions:     ranked.Contributions(),
				Features:          ranked,
				Explanation:       explanation.Compose(ranked),
			}, ranked, nil
		}
	}

	metrics.RecordExplanation(name, "error")
	metrics.RecordErrorByComponent("attribution", name)
	s.log().Warn(ctx, "attribution failed", logger.String("strategy", name), logger.Error(err))
	return types.Explanation{}, nil, attribution.Fail(name, err)
}

func knownStrategy(name string) bool {
	for _, s := range Strategies {
		if s == name {
			return true
		}
	}
	return false
}
