package service

import "github.com/pwrank/pwrank/pkg/logger"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the judgment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxPairJudgments caps the judgments stored per pair. Zero disables the cap.
func WithMaxPairJudgments(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPairJudgments = n
		}
	}
}

// WithExplorationProbability sets the chance NextPair explores at random.
func WithExplorationProbability(p float64) Option {
	return func(s *Service) {
		if p >= 0 && p <= 1 {
			s.exploration = p
		}
	}
}

// WithRatingScaleMax sets the top of the published rating scale.
func WithRatingScaleMax(scaleMax float64) Option {
	return func(s *Service) {
		if scaleMax > 0 {
			s.scaleMax = scaleMax
		}
	}
}

// WithFitTolerance sets the MM convergence tolerance.
func WithFitTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithFitMaxIterations sets the MM iteration cap.
func WithFitMaxIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithPriorStrength sets the pseudo-win count used when the data has no finite MLE.
func WithPriorStrength(strength float64) Option {
	return func(s *Service) {
		if strength > 0 {
			s.priorStrength = strength
		}
	}
}

// WithRandomSeed seeds pair selection. Zero seeds from the clock.
func WithRandomSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
