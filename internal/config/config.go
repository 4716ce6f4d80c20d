// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors returned by Load wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Supported values for the enumerated keys.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"

	FormatText = "text"
	FormatJSON = "json"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelStore picks the persistence backend: file or sqlite.
	ModelStore string `koanf:"model_store"`

	// ModelPath is the model file or database location.
	ModelPath string `koanf:"model_path"`

	// TrainingSamples is the number of simulated rows per training run.
	TrainingSamples int `koanf:"training_samples"`

	// TrainingEpochs, HiddenSize and LearningRate tune the network.
	TrainingEpochs int     `koanf:"training_epochs"`
	HiddenSize     int     `koanf:"hidden_size"`
	LearningRate   float64 `koanf:"learning_rate"`

	// Seed drives the simulator and the network initialization.
	Seed int64 `koanf:"seed"`

	// BackgroundSamples is the reference population size for attributions.
	BackgroundSamples int `koanf:"background_samples"`

	// LIMESamples and LIMEKernelWidth tune the local surrogate.
	LIMESamples     int     `koanf:"lime_samples"`
	LIMEKernelWidth float64 `koanf:"lime_kernel_width"`

	// MaxBodyBytes caps request bodies on the HTTP surface.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         FormatText,
		Addr:              ":9080",
		ModelStore:        StoreFile,
		ModelPath:         "data/model.json",
		TrainingSamples:   1000,
		TrainingEpochs:    10_000,
		HiddenSize:        8,
		LearningRate:      0.01,
		Seed:              42,
		BackgroundSamples: 100,
		LIMESamples:       1000,
		LIMEKernelWidth:   1.5,
		MaxBodyBytes:      1 << 20,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.ModelPath == "":
		return invalid("model_path must not be empty")
	case c.TrainingSamples <= 0:
		return invalid("training_samples must be positive, got %d", c.TrainingSamples)
	case c.TrainingEpochs <= 0:
		return invalid("training_epochs must be positive, got %d", c.TrainingEpochs)
	case c.HiddenSize <= 0:
		return invalid("hidden_size must be positive, got %d", c.HiddenSize)
	case c.LearningRate <= 0:
		return invalid("learning_rate must be positive, got %g", c.LearningRate)
	case c.BackgroundSamples <= 0:
		return invalid("background_samples must be positive, got %d", c.BackgroundSamples)
	case c.LIMESamples < 2:
		return invalid("lime_samples must be at least 2, got %d", c.LIMESamples)
	case c.LIMEKernelWidth <= 0:
		return invalid("lime_kernel_width must be positive, got %g", c.LIMEKernelWidth)
	case c.MaxBodyBytes <= 0:
		return invalid("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case FormatText, FormatJSON:
	default:
		return invalid("unknown log_format %q", c.LogFormat)
	}
	switch c.ModelStore {
	case StoreFile, StoreSQLite:
	default:
		return invalid("unknown model_store %q", c.ModelStore)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
