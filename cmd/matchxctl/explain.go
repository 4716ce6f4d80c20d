package main

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/matchxai/internal/domain/types"
	"github.com/okian/matchxai/pkg/logger"
	"github.com/urfave/cli/v3"
)

const (
	strategyCombined   = "combined"
	strategyImportance = "importance"
)

func instanceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{Name: "skills", Usage: "Skills match score (0-100)"},
		&cli.FloatFlag{Name: "experience", Usage: "Experience match score (0-100)"},
		&cli.FloatFlag{Name: "location", Usage: "Location match score (0-100)"},
		&cli.FloatFlag{Name: "salary", Usage: "Salary match score (0-100)"},
	}
}

// instance reads the feature flags into a request payload.
func instance(cmd *cli.Command) map[string]float64 {
	out := make(map[string]float64, types.FeatureCount)
	for _, key := range types.FeatureKeys {
		out[key] = cmd.Float(key)
	}
	return out
}

func newPredictCmd() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Request an acceptance prediction",
		Flags: instanceFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := setup(cmd); err != nil {
				return err
			}
			p, err := client(cmd).Predict(ctx, instance(cmd))
			if err != nil {
				return fmt.Errorf("predict: %w", err)
			}
			return printResult(cmd, map[string]float64{"prediction": p})
		},
	}
}

func newExplainCmd() *cli.Command {
	return &cli.Command{
		Name:  "explain",
		Usage: "Explain a prediction",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "shap, lime, rules, combined or importance",
				Value: strategyCombined,
			},
		}, instanceFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := setup(cmd); err != nil {
				return err
			}
			c := client(cmd)
			inst := instance(cmd)
			strategy := cmd.String("strategy")
			start := time.Now()
			defer func() {
				logger.Get().Debug(ctx, "explain finished",
					logger.String("strategy", strategy),
					logger.String("elapsed", elapsed(start)))
			}()

			switch strategy {
			case strategyCombined:
				res, err := c.Combined(ctx, inst)
				if err != nil {
					return fmt.Errorf("explain %s: %w", strategy, err)
				}
				return printResult(cmd, res.CombinedExplanation)
			case strategyImportance:
				res, err := c.Importance(ctx, inst)
				if err != nil {
					return fmt.Errorf("explain %s: %w", strategy, err)
				}
				return printResult(cmd, res)
			default:
				res, err := c.Explain(ctx, strategy, inst)
				if err != nil {
					return fmt.Errorf("explain %s: %w", strategy, err)
				}
				return printResult(cmd, res.Explanation)
			}
		},
	}
}
