package selection

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithExplorationProbability sets the probability of the random strategy.
// Values outside [0, 1] are ignored.
func WithExplorationProbability(p float64) Option {
	return func(s *Selector) {
		if p >= 0 && p <= 1 {
			s.exploration = p
		}
	}
}

// WithRand sets the randomness source.
func WithRand(r Rand) Option {
	return func(s *Selector) {
		if r != nil {
			s.rng = r
		}
	}
}
