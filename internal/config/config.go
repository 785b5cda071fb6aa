// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and PWRANK_ environment variables over the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory judgment queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of judgment workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the judgment-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxPairJudgments caps the games recorded for a single pair in a session.
	MaxPairJudgments int `koanf:"max_pair_judgments"`

	// ExplorationProbability is the chance NextPair picks a random pair.
	ExplorationProbability float64 `koanf:"exploration_probability"`

	// RatingScaleMax is the top of the published rating scale.
	RatingScaleMax float64 `koanf:"rating_scale_max"`

	// FitTolerance and FitMaxIterations bound the Bradley-Terry MM loop.
	FitTolerance     float64 `koanf:"fit_tolerance"`
	FitMaxIterations int     `koanf:"fit_max_iterations"`

	// PriorStrength is the pseudo-win count added per side when the data has no finite MLE.
	PriorStrength float64 `koanf:"prior_strength"`

	// RandomSeed seeds pair selection. Zero seeds from the clock.
	RandomSeed int64 `koanf:"random_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             100_000,
		MaxPairJudgments:       100,
		ExplorationProbability: 0.33,
		RatingScaleMax:         10,
		FitTolerance:           1e-6,
		FitMaxIterations:       200,
		PriorStrength:          0.5,
		RandomSeed:             0,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MaxPairJudgments < 0:
		return fmt.Errorf("%w: max_pair_judgments must not be negative", ErrInvalidConfig)
	case c.ExplorationProbability < 0 || c.ExplorationProbability > 1:
		return fmt.Errorf("%w: exploration_probability must be in [0, 1]", ErrInvalidConfig)
	case !(c.RatingScaleMax > 0):
		return fmt.Errorf("%w: rating_scale_max must be positive", ErrInvalidConfig)
	case !(c.FitTolerance > 0):
		return fmt.Errorf("%w: fit_tolerance must be positive", ErrInvalidConfig)
	case c.FitMaxIterations < 1:
		return fmt.Errorf("%w: fit_max_iterations must be at least 1", ErrInvalidConfig)
	case !(c.PriorStrength > 0):
		return fmt.Errorf("%w: prior_strength must be positive", ErrInvalidConfig)
	}
	return nil
}
