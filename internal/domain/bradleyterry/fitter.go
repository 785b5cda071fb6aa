// Package bradleyterry fits Bradley-Terry abilities to pairwise tallies.
//
// Under the model P(i beats j) = π_i / (π_i + π_j). Abilities are estimated by
// maximum likelihood. Each iteration takes a Newton step on the log-abilities,
// guarded by step halving, and falls back to Hunter's Minorization-Maximization
// update when no Newton step improves the likelihood. Abilities are reported
// on the log scale, normalized so their mean is zero (the geometric
// mean of π is 1). Standard errors come from the observed Fisher information.
//
// cf. D. R. Hunter, "MM algorithms for generalized Bradley-Terry models",
// Annals of Statistics 32(1), 2004.
package bradleyterry

import (
	"fmt"
	"math"
	"sort"

	"github.com/pwrank/pwrank/internal/domain/model"
)

// Default fitting configuration constants.
const (
	defaultTolerance     = 1e-6
	defaultMaxIterations = 200
	defaultPriorStrength = 0.5

	maxStepHalvings = 30
	likelihoodSlack = 1e-12
)

// Fitter estimates a FittedModel from pair tallies. A Fitter holds only
// configuration and is safe for concurrent use.
type Fitter struct {
	tolerance     float64
	maxIterations int
	priorStrength float64
}

// NewFitter creates a fitter with configuration options.
func NewFitter(opts ...Option) *Fitter {
	f := &Fitter{
		tolerance:     defaultTolerance,
		maxIterations: defaultMaxIterations,
		priorStrength: defaultPriorStrength,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit is a shorthand for NewFitter(opts...).Fit(tallies).
func Fit(tallies []model.PairTally, opts ...Option) (*model.FittedModel, error) {
	return NewFitter(opts...).Fit(tallies)
}

// edge is one observed pair; wij counts wins of i over j.
type edge struct {
	i, j     int
	wij, wji float64
}

type problem struct {
	ids   []string
	edges []edge

	// judgments counts raw judgments per item, draws unsplit.
	judgments []int
}

// Fit estimates abilities from tallies. Pairs without decided games are
// ignored, and so are items that only appear in such pairs.
func (f *Fitter) Fit(tallies []model.PairTally) (*model.FittedModel, error) {
	p, err := newProblem(tallies)
	if err != nil {
		return nil, err
	}
	if len(p.ids) < 2 {
		return nil, fmt.Errorf("%w: %d item(s) with decided comparisons, need at least 2",
			ErrInsufficientData, len(p.ids))
	}
	if comps := p.components(); len(comps) > 1 {
		return nil, &UnidentifiableModelError{Components: comps}
	}

	regularized := false
	if !p.stronglyConnected() {
		p.addPrior(f.priorStrength)
		regularized = true
	}

	pi, iterations, converged := f.iterate(p)

	fm := &model.FittedModel{
		Converged:     converged,
		Iterations:    iterations,
		LogLikelihood: p.logLikelihood(pi),
		Regularized:   regularized,
	}
	if math.IsNaN(fm.LogLikelihood) || math.IsInf(fm.LogLikelihood, 0) {
		return nil, fmt.Errorf("%w: log-likelihood is not finite", ErrDegenerateFit)
	}

	variances, ok := p.variances(pi)
	fm.Estimates = make([]model.AbilityEstimate, len(p.ids))
	for i, id := range p.ids {
		ability := math.Log(pi[i])
		if math.IsNaN(ability) || math.IsInf(ability, 0) {
			return nil, fmt.Errorf("%w: ability of %q is not finite", ErrDegenerateFit, id)
		}
		est := model.AbilityEstimate{
			ItemID:      id,
			Ability:     ability,
			Comparisons: p.judgments[i],
		}
		if ok {
			est.StdErr = math.Sqrt(variances[i])
			est.StdErrDefined = true
		}
		fm.Estimates[i] = est
	}
	sort.SliceStable(fm.Estimates, func(a, b int) bool {
		ea, eb := fm.Estimates[a], fm.Estimates[b]
		if ea.Ability != eb.Ability {
			return ea.Ability > eb.Ability
		}
		return ea.ItemID < eb.ItemID
	})
	for i := range fm.Estimates {
		fm.Estimates[i].Rank = i + 1
	}
	return fm, nil
}

func newProblem(tallies []model.PairTally) (*problem, error) {
	type key struct{ low, high string }
	merged := make(map[key]*model.PairTally)
	seen := make(map[string]struct{})
	raw := make(map[string]int)
	for _, t := range tallies {
		switch {
		case t.ItemLow == "" || t.ItemHigh == "":
			return nil, fmt.Errorf("%w: empty item identifier", ErrInvalidTally)
		case t.ItemLow == t.ItemHigh:
			return nil, fmt.Errorf("%w: item %q paired with itself", ErrInvalidTally, t.ItemLow)
		case t.WinLow < 0 || t.WinHigh < 0 || t.DrawCount < 0:
			return nil, fmt.Errorf("%w: negative count for pair (%s, %s)", ErrInvalidTally, t.ItemLow, t.ItemHigh)
		}
		raw[t.ItemLow] += t.Judgments()
		raw[t.ItemHigh] += t.Judgments()
		if t.Games() == 0 {
			continue
		}
		if t.ItemLow > t.ItemHigh {
			t.ItemLow, t.ItemHigh = t.ItemHigh, t.ItemLow
			t.WinLow, t.WinHigh = t.WinHigh, t.WinLow
		}
		k := key{t.ItemLow, t.ItemHigh}
		if m, ok := merged[k]; ok {
			m.WinLow += t.WinLow
			m.WinHigh += t.WinHigh
			continue
		}
		tc := t
		merged[k] = &tc
		seen[t.ItemLow] = struct{}{}
		seen[t.ItemHigh] = struct{}{}
	}

	p := &problem{ids: make([]string, 0, len(seen))}
	for id := range seen {
		p.ids = append(p.ids, id)
	}
	sort.Strings(p.ids)
	index := make(map[string]int, len(p.ids))
	p.judgments = make([]int, len(p.ids))
	for i, id := range p.ids {
		index[id] = i
		p.judgments[i] = raw[id]
	}

	p.edges = make([]edge, 0, len(merged))
	for _, t := range merged {
		p.edges = append(p.edges, edge{
			i:   index[t.ItemLow],
			j:   index[t.ItemHigh],
			wij: float64(t.WinLow),
			wji: float64(t.WinHigh),
		})
	}
	// Map iteration order must not leak into floating point sums.
	sort.Slice(p.edges, func(a, b int) bool {
		if p.edges[a].i != p.edges[b].i {
			return p.edges[a].i < p.edges[b].i
		}
		return p.edges[a].j < p.edges[b].j
	})
	return p, nil
}

func (p *problem) addPrior(strength float64) {
	for k := range p.edges {
		p.edges[k].wij += strength
		p.edges[k].wji += strength
	}
}

// iterate runs Newton steps from π = 1, falling back to a simultaneous MM
// update when a Newton step cannot improve the likelihood, until the largest
// relative change drops below the tolerance or the iteration cap is hit.
func (f *Fitter) iterate(p *problem) (pi []float64, iterations int, converged bool) {
	n := len(p.ids)
	wins := make([]float64, n)
	for _, e := range p.edges {
		wins[e.i] += e.wij
		wins[e.j] += e.wji
	}

	pi = make([]float64, n)
	for i := range pi {
		pi[i] = 1
	}
	for iter := 1; iter <= f.maxIterations; iter++ {
		next, ok := p.newtonStep(pi, wins)
		if !ok {
			next = p.mmStep(pi, wins)
		}
		normalize(next)

		delta := 0.0
		for i := range pi {
			if rel := math.Abs(next[i]-pi[i]) / pi[i]; rel > delta {
				delta = rel
			}
		}
		pi = next
		if delta < f.tolerance {
			return pi, iter, true
		}
	}
	return pi, f.maxIterations, false
}

// mmStep is Hunter's update π_i ← W_i / Σ_j n_ij/(π_i+π_j).
func (p *problem) mmStep(pi, wins []float64) []float64 {
	denom := make([]float64, len(pi))
	for _, e := range p.edges {
		d := (e.wij + e.wji) / (pi[e.i] + pi[e.j])
		denom[e.i] += d
		denom[e.j] += d
	}
	next := make([]float64, len(pi))
	for i := range next {
		next[i] = wins[i] / denom[i]
	}
	return next
}

// normalize rescales v so that its geometric mean is 1.
func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += math.Log(x)
	}
	scale := math.Exp(sum / float64(len(v)))
	for i := range v {
		v[i] /= scale
	}
}

func (p *problem) logLikelihood(pi []float64) float64 {
	ll := 0.0
	for _, e := range p.edges {
		s := pi[e.i] + pi[e.j]
		if e.wij > 0 {
			ll += e.wij * math.Log(pi[e.i]/s)
		}
		if e.wji > 0 {
			ll += e.wji * math.Log(pi[e.j]/s)
		}
	}
	return ll
}
