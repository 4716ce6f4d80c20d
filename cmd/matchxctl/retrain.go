package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func newRetrainCmd() *cli.Command {
	return &cli.Command{
		Name:  "retrain",
		Usage: "Retrain the server model on fresh synthetic data",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := setup(cmd); err != nil {
				return err
			}
			res, err := client(cmd).Retrain(ctx)
			if err != nil {
				return fmt.Errorf("retrain: %w", err)
			}
			return printResult(cmd, res)
		},
	}
}
