package bradleyterry

import "math"

// Option applies a configuration option to the Fitter.
type Option func(*Fitter)

// WithTolerance sets the maximum relative ability change that counts as converged.
func WithTolerance(tolerance float64) Option {
	return func(f *Fitter) {
		if tolerance > 0 && !math.IsInf(tolerance, 0) {
			f.tolerance = tolerance
		}
	}
}

// WithMaxIterations caps the number of MM iterations.
func WithMaxIterations(n int) Option {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// WithPriorStrength sets the virtual wins added to each side of every observed
// pair when the data admits no finite maximum-likelihood estimate.
func WithPriorStrength(strength float64) Option {
	return func(f *Fitter) {
		if strength > 0 && !math.IsInf(strength, 0) {
			f.priorStrength = strength
		}
	}
}
