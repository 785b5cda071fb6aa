// Package ranking turns fitted abilities into bounded percentile ratings.
package ranking

import (
	"fmt"
	"math"

	"github.com/pwrank/pwrank/internal/domain/model"
)

// DefaultScaleMax is the rating given to the strongest item.
const DefaultScaleMax = 10.0

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithScaleMax sets the top of the rating scale.
func WithScaleMax(scaleMax float64) Option {
	return func(r *Ranker) {
		r.scaleMax = scaleMax
	}
}

// Ranker maps a FittedModel to ratings on (0, scaleMax].
type Ranker struct {
	scaleMax float64
}

// New creates a ranker with configuration options.
func New(opts ...Option) *Ranker {
	r := &Ranker{scaleMax: DefaultScaleMax}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ratings ranks m on the configured scale.
func (r *Ranker) Ratings(m *model.FittedModel) ([]model.Rating, error) {
	return Ratings(m, r.scaleMax)
}

// Ratings assigns the item at 1-based ascending-ability position k of n the
// rating k/n*scaleMax. The result is ordered best first. Raw abilities are
// unbounded log-odds; only the position feeds the rating.
func Ratings(m *model.FittedModel, scaleMax float64) ([]model.Rating, error) {
	if scaleMax <= 0 || math.IsNaN(scaleMax) || math.IsInf(scaleMax, 0) {
		return nil, fmt.Errorf("%w: scale max must be a positive finite number, got %v", ErrInvalidScale, scaleMax)
	}
	asc := m.Ascending()
	n := len(asc)
	out := make([]model.Rating, n)
	for k, e := range asc {
		stderr := 0.0
		if e.StdErrDefined {
			stderr = e.StdErr
		}
		// best first: ascending position k lands at n-1-k
		out[n-1-k] = model.Rating{
			ItemID:        e.ItemID,
			Rating:        float64(k+1) / float64(n) * scaleMax,
			StdErr:        stderr,
			StdErrDefined: e.StdErrDefined,
			Ability:       e.Ability,
			Rank:          n - k,
			Comparisons:   e.Comparisons,
		}
	}
	return out, nil
}
