// Command matchxctl is the operator CLI for a matchxai server: it dumps
// simulated data, requests predictions and explanations, triggers retrains
// and probes a running instance for invariant violations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/matchxai/internal/probe"
	"github.com/okian/matchxai/pkg/logger"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var version = "v0.0.1-default"

// Global flag names.
const (
	urlFlag     = "url"
	formatFlag  = "format"
	timeoutFlag = "timeout"
	debugFlag   = "debug"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "matchxctl:", err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the command tree. Flags keep parsed state, so every call
// creates fresh ones.
func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:            "matchxctl",
		Version:         version,
		Usage:           "CLI for the matchxai attribution service",
		HideHelpCommand: true,
		Writer:          w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    urlFlag,
				Usage:   "Base URL of the matchxai server",
				Value:   probe.DefaultBaseURL,
				Sources: cli.EnvVars("MATCHXAI_URL"),
			},
			&cli.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "HTTP request timeout",
				Value: probe.DefaultTimeout,
			},
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs (optional, default: false)",
			},
		},
		Commands: []*cli.Command{
			newSimulateCmd(),
			newPredictCmd(),
			newExplainCmd(),
			newRetrainCmd(),
			newProbeCmd(),
		},
	}
}

// setup initializes logging from the global flags.
func setup(cmd *cli.Command) error {
	if err := logger.InitWithFormat(logger.FormatText, os.Stderr); err != nil {
		return err
	}
	level := "warn"
	if cmd.Bool(debugFlag) {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

func client(cmd *cli.Command) *probe.Client {
	return probe.NewClient(cmd.String(urlFlag), cmd.Duration(timeoutFlag))
}

// printResult writes v to the root writer in the selected format.
func printResult(cmd *cli.Command, v any) error {
	w := cmd.Root().Writer
	switch f := cmd.String(formatFlag); f {
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
