// Package selection picks the next pair of items a rater should judge.
//
// With probability p the selector explores (random item), otherwise it
// exploits (item with the largest standard error). Either way the chosen item
// is paired with its less certain neighbour in ability order.
package selection

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pwrank/pwrank/internal/domain/model"
)

// Default selection configuration constants.
const (
	DefaultExplorationProbability = 0.33
	defaultRandomSeed             = 42
)

// Strategy names the policy that produced a Choice.
type Strategy string

// Selection strategies.
const (
	StrategyOptimal Strategy = "optimal"
	StrategyRandom  Strategy = "random"
)

// Rand is the randomness the selector needs. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Choice is a selected pair and the strategy that chose it.
type Choice struct {
	Pair     model.Pair
	Strategy Strategy
}

// Selector chooses pairs from a FittedModel. It is safe for concurrent use
// only if its Rand is.
type Selector struct {
	exploration float64
	rng         Rand
}

// New creates a selector with configuration options.
func New(opts ...Option) *Selector {
	s := &Selector{
		exploration: DefaultExplorationProbability,
		rng:         rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // selection is not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next draws the strategy and returns the chosen pair. It may return a pair
// that was judged before: uncertainty can grow again as the ranking shifts.
func (s *Selector) Next(m *model.FittedModel) (Choice, error) {
	if s.rng.Float64() < s.exploration {
		return s.Random(m)
	}
	return s.Optimal(m)
}

// Optimal pairs the item with the largest standard error (lowest identifier
// on ties) with its less certain neighbour.
func (s *Selector) Optimal(m *model.FittedModel) (Choice, error) {
	asc, err := trained(m)
	if err != nil {
		return Choice{}, err
	}
	best := 0
	for i := 1; i < len(asc); i++ {
		ui, ub := uncertainty(asc[i]), uncertainty(asc[best])
		if ui > ub || (ui == ub && asc[i].ItemID < asc[best].ItemID) {
			best = i
		}
	}
	return choice(asc, best, StrategyOptimal), nil
}

// Random pairs a uniformly chosen item with its less certain neighbour.
func (s *Selector) Random(m *model.FittedModel) (Choice, error) {
	asc, err := trained(m)
	if err != nil {
		return Choice{}, err
	}
	return choice(asc, s.rng.Intn(len(asc)), StrategyRandom), nil
}

// LessCertainNeighbor returns the index of the neighbour of asc[idx] with the
// larger standard error, asc being sorted by ascending ability. Boundary items
// have a single neighbour; on equal uncertainty the successor wins.
func LessCertainNeighbor(asc []model.AbilityEstimate, idx int) int {
	switch {
	case idx == 0:
		return 1
	case idx == len(asc)-1:
		return idx - 1
	case uncertainty(asc[idx-1]) > uncertainty(asc[idx+1]):
		return idx - 1
	default:
		return idx + 1
	}
}

func choice(asc []model.AbilityEstimate, idx int, strategy Strategy) Choice {
	other := LessCertainNeighbor(asc, idx)
	return Choice{
		Pair:     model.Pair{A: asc[idx].ItemID, B: asc[other].ItemID},
		Strategy: strategy,
	}
}

func trained(m *model.FittedModel) ([]model.AbilityEstimate, error) {
	if m.Len() < 2 {
		return nil, fmt.Errorf("%w: %d fitted item(s), need at least 2", ErrModelNotTrained, m.Len())
	}
	return m.Ascending(), nil
}

// uncertainty treats an undefined standard error as the largest possible.
func uncertainty(e model.AbilityEstimate) float64 {
	if !e.StdErrDefined {
		return math.Inf(1)
	}
	return e.StdErr
}
