// Package worker defines worker contracts for asynchronous judgment ingestion.
package worker

import (
	"sync/atomic"

	"github.com/pwrank/pwrank/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithErrorHandler sets the callback for judgments that failed to apply.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *InMemoryWorker) {
		w.onError = h
	}
}

func withAppliedCounter(c *atomic.Int64) Option {
	return func(w *InMemoryWorker) {
		if c != nil {
			w.applied = c
		}
	}
}
