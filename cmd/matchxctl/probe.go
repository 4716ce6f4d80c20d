package main

import (
	"context"
	"fmt"

	"github.com/okian/matchxai/internal/probe"
	"github.com/urfave/cli/v3"
)

type probeReport struct {
	Requests   int            `json:"requests" yaml:"requests"`
	Successful int            `json:"successful" yaml:"successful"`
	Failed     int            `json:"failed" yaml:"failed"`
	Violations int            `json:"violations" yaml:"violations"`
	ByCall     map[string]int `json:"byCall" yaml:"byCall"`
	Duration   string         `json:"duration" yaml:"duration"`
	Errors     []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newProbeCmd() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Send concurrent requests and verify every response",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "requests",
				Usage: "Number of instances to send",
				Value: probe.DefaultRequests,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers (default CPU cores * 2)",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Instance generation seed",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log every failed call",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := setup(cmd); err != nil {
				return err
			}
			stats, violations, runErr := probe.Run(ctx, probe.Config{
				BaseURL:  cmd.String(urlFlag),
				Requests: int(cmd.Int("requests")),
				Workers:  int(cmd.Int("workers")),
				Timeout:  cmd.Duration(timeoutFlag),
				Seed:     int64(cmd.Int("seed")),
				Verbose:  cmd.Bool("verbose"),
			})

			report := probeReport{
				Requests:   stats.Requests,
				Successful: stats.Successful,
				Failed:     stats.Failed,
				Violations: stats.Violations,
				ByCall:     stats.ByCall,
				Duration:   stats.Duration.String(),
			}
			for _, v := range violations {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", v.Call, v.Err))
			}
			if err := printResult(cmd, report); err != nil {
				return err
			}
			return runErr
		},
	}
}
