// Package repository defines the session store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxPairJudgments caps the raw judgments a single pair may collect.
// Zero disables the cap.
func WithMaxPairJudgments(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.maxPairJudgments = n
		}
	}
}

// WithClock sets the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
