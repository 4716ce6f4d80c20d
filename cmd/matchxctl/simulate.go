package main

import (
	"context"

	"github.com/okian/matchxai/internal/domain/simulator"
	"github.com/okian/matchxai/internal/domain/types"
	"github.com/urfave/cli/v3"
)

// simulatedRow is one generated sample on the request scale.
type simulatedRow struct {
	Skills     float64 `json:"skills" yaml:"skills"`
	Experience float64 `json:"experience" yaml:"experience"`
	Location   float64 `json:"location" yaml:"location"`
	Salary     float64 `json:"salary" yaml:"salary"`
	Acceptance float64 `json:"acceptance" yaml:"acceptance"`
}

func newSimulateCmd() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Print synthetic training samples",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of samples",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Simulator seed",
				Value: 42,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			sim := simulator.New(simulator.WithSeed(int64(cmd.Int("seed"))))
			samples := sim.Generate(int(cmd.Int("count")))

			rows := make([]simulatedRow, len(samples))
			for i, s := range samples {
				p := s.Features.Percent()
				rows[i] = simulatedRow{
					Skills:     p[types.Skills],
					Experience: p[types.Experience],
					Location:   p[types.Location],
					Salary:     p[types.Salary],
					Acceptance: s.Label * 100,
				}
			}
			return printResult(cmd, rows)
		},
	}
}
