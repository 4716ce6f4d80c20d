// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/matchxai/internal/adapters/explainers/lime"
	"github.com/okian/matchxai/internal/adapters/explainers/rules"
	"github.com/okian/matchxai/internal/adapters/explainers/shapley"
	"github.com/okian/matchxai/internal/adapters/repository"
	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/scoring"
	"github.com/okian/matchxai/internal/domain/simulator"
	"github.com/okian/matchxai/internal/domain/types"
	"github.com/okian/matchxai/pkg/logger"
	"github.com/okian/matchxai/pkg/metrics"
)

// ServiceName is reported by Health.
const ServiceName = "matchxai"

// Default service configuration constants.
const (
	defaultTrainingSamples   = 1000
	defaultBackgroundSamples = 100
	defaultSeed              = 42

	historyLimit   = 5
	historyTimeout = 2 * time.Second
)

// engine is an immutable snapshot of everything a request needs.
// Requests load it once and use it throughout.
type engine struct {
	network    *scoring.Network
	version    string
	trainedAt  time.Time
	samples    int
	loss       float64
	strategies map[string]attribution.Strategy
}

// Service implements the API dependencies for the attribution system.
type Service struct {
	mu        sync.RWMutex
	retrainMu sync.Mutex

	current atomic.Pointer[engine]
	store   repository.Store
	sim     *simulator.Simulator

	// Configuration
	trainingSamples   int
	backgroundSamples int
	limeSamples       int
	kernelWidth       float64
	hiddenSize        int
	learningRate      float64
	epochs            int
	seed              int64

	// State
	started     bool
	storeClosed bool
	startedAt   time.Time
	generation  atomic.Int64
	predictions atomic.Int64
	explained   atomic.Int64
	retrains    atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore persists trained models to store. Without it models live in memory only.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithTrainingSamples sets the synthetic training set size.
func WithTrainingSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trainingSamples = n
		}
	}
}

// WithBackgroundSamples sets the reference set size used by the explainers.
func WithBackgroundSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.backgroundSamples = n
		}
	}
}

// WithLIMESamples sets the number of perturbations per LIME explanation.
func WithLIMESamples(n int) Option {
	return func(s *Service) {
		if n > 1 {
			s.limeSamples = n
		}
	}
}

// WithKernelWidth sets the LIME proximity kernel width.
func WithKernelWidth(w float64) Option {
	return func(s *Service) {
		if w > 0 {
			s.kernelWidth = w
		}
	}
}

// WithHiddenSize sets the hidden layer width of newly trained models.
func WithHiddenSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.hiddenSize = n
		}
	}
}

// WithLearningRate sets the SGD learning rate.
func WithLearningRate(rate float64) Option {
	return func(s *Service) {
		if rate > 0 {
			s.learningRate = rate
		}
	}
}

// WithEpochs sets the number of training epochs.
func WithEpochs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.epochs = n
		}
	}
}

// WithSeed seeds data generation, weight initialization and LIME sampling.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		trainingSamples:   defaultTrainingSamples,
		backgroundSamples: defaultBackgroundSamples,
		limeSamples:       lime.DefaultSamples,
		kernelWidth:       lime.DefaultKernelWidth,
		hiddenSize:        scoring.DefaultHiddenSize,
		learningRate:      scoring.DefaultLearningRate,
		epochs:            scoring.DefaultEpochs,
		seed:              defaultSeed,
		logger:            nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.sim = simulator.New(simulator.WithSeed(s.seed))
	return s
}

// Start loads the persisted model, or trains and persists a new one when
// nothing usable is stored.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting attribution service...")

	if err := s.ensureReady(ctx); err != nil {
		metrics.UpdateModelLoaded(false)
		return err
	}

	s.started = true
	s.startedAt = time.Now()
	e := s.current.Load()
	s.logger.Info(ctx, "attribution service started",
		logger.String("modelVersion", e.version),
		logger.Int("hiddenSize", e.network.HiddenSize()),
		logger.Int("backgroundSamples", s.backgroundSamples),
	)
	return nil
}

// Stop releases the model store. It also releases it after a failed Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeStore()
	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "attribution service stopped")
}

func (s *Service) closeStore() {
	if s.store == nil || s.storeClosed {
		return
	}
	s.storeClosed = true
	if err := s.store.Close(); err != nil {
		s.log().Warn(context.Background(), "failed to close model store", logger.Error(err))
	}
}

// Ready reports whether a model is loaded.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

func (s *Service) ensureReady(ctx context.Context) error {
	s.retrainMu.Lock()
	defer s.retrainMu.Unlock()

	if s.current.Load() != nil {
		return nil
	}

	if s.store != nil {
		rec, err := s.store.Load(ctx)
		switch {
		case err == nil:
			network, derr := scoring.Decode(rec.Blob)
			if derr == nil {
				e, berr := s.buildEngine(network, rec.Version, rec.TrainedAt, rec.Samples, rec.Loss)
				if berr != nil {
					return berr
				}
				s.install(e)
				s.logger.Info(ctx, "loaded persisted model",
					logger.String("version", rec.Version),
					logger.Float64("loss", rec.Loss))
				return nil
			}
			s.logger.Warn(ctx, "persisted model unusable, retraining", logger.Error(derr))
		case errors.Is(err, repository.ErrNotFound):
			s.logger.Info(ctx, "no persisted model, training a new one")
		default:
			s.logger.Warn(ctx, "failed to load persisted model, retraining", logger.Error(err))
		}
	}

	e, err := s.train(ctx)
	if err != nil {
		return err
	}
	// a trained model serves even when it cannot be written; the next start retrains
	if err := s.persist(ctx, e); err != nil {
		metrics.RecordErrorByComponent("service", "persist")
		s.logger.Warn(ctx, "serving unpersisted model", logger.String("version", e.version), logger.Error(err))
	}
	s.install(e)
	return nil
}

// Retrain trains a model on fresh synthetic data and swaps it in.
// Requests already in flight finish on the model they started with.
func (s *Service) Retrain(ctx context.Context) (types.RetrainResult, error) {
	s.retrainMu.Lock()
	defer s.retrainMu.Unlock()

	e, err := s.train(ctx)
	if err == nil {
		err = s.persist(ctx, e)
	}
	if err != nil {
		metrics.RecordRetrain("error")
		metrics.RecordErrorByComponent("service", "retrain")
		s.log().Error(ctx, "retrain failed", logger.Error(err))
		return types.RetrainResult{Success: false, Message: err.Error()}, err
	}
	s.install(e)
	s.retrains.Add(1)
	metrics.RecordRetrain("success")

	return types.RetrainResult{
		Success:      true,
		Message:      "Model retrained successfully",
		ModelVersion: e.version,
	}, nil
}

func (s *Service) train(ctx context.Context) (*engine, error) {
	gen := s.generation.Add(1)
	samples := s.sim.Generate(s.trainingSamples)
	trainer := scoring.NewTrainer(
		scoring.WithHiddenSize(s.hiddenSize),
		scoring.WithLearningRate(s.learningRate),
		scoring.WithEpochs(s.epochs),
		scoring.WithSeed(s.seed+gen-1),
	)

	s.log().Info(ctx, "training model",
		logger.Int("samples", len(samples)),
		logger.Int("epochs", s.epochs),
		logger.Int("hiddenSize", s.hiddenSize))

	network, stats, err := trainer.Train(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	metrics.RecordTrainingDuration(float64(stats.Duration.Milliseconds()))

	e, err := s.buildEngine(network, uuid.NewString(), time.Now().UTC(), stats.Samples, stats.FinalLoss)
	if err != nil {
		return nil, err
	}

	s.log().Info(ctx, "model trained",
		logger.String("version", e.version),
		logger.Float64("loss", e.loss),
		logger.Duration("took", stats.Duration))
	return e, nil
}

// persist writes e to the store, if one is configured.
func (s *Service) persist(ctx context.Context, e *engine) error {
	if s.store == nil {
		return nil
	}
	blob, err := scoring.Encode(e.network)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := s.store.Save(ctx, repository.Record{
		Version:   e.version,
		Blob:      blob,
		TrainedAt: e.trainedAt,
		Samples:   e.samples,
		Loss:      e.loss,
	}); err != nil {
		return fmt.Errorf("persist model: %w", err)
	}
	return nil
}

// buildEngine wires the strategies around network. The background comes from
// a fixed-seed simulator so explanations stay comparable across reloads.
func (s *Service) buildEngine(network *scoring.Network, version string, trainedAt time.Time, samples int, loss float64) (*engine, error) {
	background := simulator.New(simulator.WithSeed(s.seed)).Background(s.backgroundSamples)

	shap, err := shapley.New(background)
	if err != nil {
		return nil, err
	}
	local, err := lime.New(background,
		lime.WithSamples(s.limeSamples),
		lime.WithKernelWidth(s.kernelWidth),
		lime.WithSeed(s.seed),
	)
	if err != nil {
		return nil, err
	}

	return &engine{
		network:   network,
		version:   version,
		trainedAt: trainedAt,
		samples:   samples,
		loss:      loss,
		strategies: map[string]attribution.Strategy{
			shap.Name():  shap,
			local.Name(): local,
			rules.Name:   rules.Explainer{},
		},
	}, nil
}

func (s *Service) install(e *engine) {
	s.current.Store(e)
	metrics.UpdateModelLoaded(true)
	metrics.UpdateTrainingLoss(e.loss)
	metrics.UpdateModelAge(time.Since(e.trainedAt).Seconds())
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

func (s *Service) snapshot() (*engine, error) {
	e := s.current.Load()
	if e == nil {
		return nil, ErrModelUnavailable
	}
	return e, nil
}

// Health reports readiness and the active model version.
func (s *Service) Health() types.Health {
	h := types.Health{Status: "healthy", Service: ServiceName}
	if e := s.current.Load(); e != nil {
		h.ModelLoaded = true
		h.ModelVersion = e.version
	}
	return h
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"trainingSamples":   s.trainingSamples,
		"backgroundSamples": s.backgroundSamples,
		"limeSamples":       s.limeSamples,
		"predictions":       s.predictions.Load(),
		"explanations":      s.explained.Load(),
		"retrains":          s.retrains.Load(),
		"goroutines":        runtime.NumGoroutine(),
		"modelLoaded":       false,
	}
	if s.started {
		stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()
	}

	if e := s.current.Load(); e != nil {
		age := time.Since(e.trainedAt).Seconds()
		stats["modelLoaded"] = true
		stats["modelVersion"] = e.version
		stats["modelTrainedAt"] = e.trainedAt.Format(time.RFC3339)
		stats["modelAgeSeconds"] = age
		stats["trainingLoss"] = e.loss
		stats["hiddenSize"] = e.network.HiddenSize()

		// Update metrics
		metrics.UpdateModelAge(age)
	}

	if history := s.history(); history != nil {
		stats["modelHistory"] = history
	}

	return stats
}

// history lists the most recent persisted models when the store keeps them.
func (s *Service) history() []map[string]interface{} {
	h, ok := s.store.(repository.Historian)
	if !ok || s.storeClosed {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	records, err := h.History(ctx, historyLimit)
	if err != nil {
		s.log().Warn(ctx, "failed to list model history", logger.Error(err))
		return nil
	}
	out := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		out[i] = map[string]interface{}{
			"version":   rec.Version,
			"trainedAt": rec.TrainedAt.Format(time.RFC3339),
			"samples":   rec.Samples,
			"loss":      rec.Loss,
		}
	}
	return out
}
