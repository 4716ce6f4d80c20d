package probe

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/matchxai/pkg/logger"
)

// Normalize fills unset fields with defaults.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Requests <= 0 {
		c.Requests = DefaultRequests
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * WorkerChannelMultiplier
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Run executes a complete probe: health check, generation, concurrent
// submission and verification. It returns ErrInvariant when any response
// broke an invariant and ErrRequestsFailed when calls errored.
func Run(ctx context.Context, cfg Config) (*Stats, []Violation, error) {
	cfg.Normalize()
	log := logger.Get()

	stats := &Stats{StartTime: time.Now(), ByCall: make(map[string]int, len(Calls))}

	log.Info(ctx, "starting matchxai probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, nil, err
	}

	instances := GenerateInstances(cfg.Requests, cfg.Seed)
	violations := submit(ctx, cfg, client, instances, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := ctx.Err(); err != nil {
		return stats, violations, err
	}
	if stats.Violations > 0 {
		return stats, violations, fmt.Errorf("%w: %d of %d responses", ErrInvariant, stats.Violations, stats.Requests)
	}
	if stats.Failed > 0 {
		return stats, violations, fmt.Errorf("%w: %d of %d requests", ErrRequestsFailed, stats.Failed, stats.Requests)
	}
	log.Info(ctx, "probe completed successfully")
	return stats, violations, nil
}

// checkServiceHealth verifies the service is running and has a model.
func checkServiceHealth(ctx context.Context, client *Client) error {
	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if !h.ModelLoaded {
		return fmt.Errorf("%w: no model loaded", ErrUnhealthy)
	}
	logger.Get().Info(ctx, "service is healthy", logger.String("modelVersion", h.ModelVersion))
	return nil
}

type job struct {
	call     string
	instance map[string]float64
}

// submit fans the instances out over a worker pool.
func submit(ctx context.Context, cfg Config, client *Client, instances []map[string]float64, stats *Stats) []Violation {
	jobs := make(chan job, cfg.Workers*WorkerChannelMultiplier)

	var (
		mu         sync.Mutex
		violations []Violation
		wg         sync.WaitGroup
	)

	record := func(j job, err error) {
		mu.Lock()
		defer mu.Unlock()

		stats.Requests++
		stats.ByCall[j.call]++
		switch {
		case err == nil:
			stats.Successful++
			return
		case errors.Is(err, ErrInvariant):
			stats.Violations++
		default:
			stats.Failed++
		}
		if cfg.Verbose {
			logger.Get().Warn(ctx, "probe call failed",
				logger.String("call", j.call),
				logger.Any("instance", j.instance),
				logger.Error(err))
		}
		if len(violations) < maxViolationsKept {
			violations = append(violations, Violation{Call: j.call, Instance: j.instance, Err: err})
		}
	}

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				record(j, call(ctx, client, j))
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, inst := range instances {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{call: Calls[i%len(Calls)], instance: inst}:
			}
		}
	}()

	wg.Wait()
	return violations
}

func call(ctx context.Context, client *Client, j job) error {
	switch j.call {
	case CallPredict:
		p, err := client.Predict(ctx, j.instance)
		if err != nil {
			return err
		}
		return VerifyPrediction(p)
	case CallCombined:
		c, err := client.Combined(ctx, j.instance)
		if err != nil {
			return err
		}
		return VerifyCombined(c.CombinedExplanation)
	default:
		ex, err := client.Explain(ctx, j.call, j.instance)
		if err != nil {
			return err
		}
		return VerifyExplanation(ex.Explanation)
	}
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Requests > 0 {
		successRate = float64(stats.Successful) / float64(stats.Requests) * 100
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Any("byCall", stats.ByCall),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
