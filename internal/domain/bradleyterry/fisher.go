package bradleyterry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// negativeVarianceSlack absorbs rounding error in variances that are zero in
// exact arithmetic.
const negativeVarianceSlack = 1e-12

// information returns the observed Fisher information of the log-abilities at
// pi, shifted by J/n. The unshifted matrix is singular along the all-ones
// direction; the shift makes it positive definite for a connected comparison
// graph without changing its action on vectors that sum to zero.
func (p *problem) information(pi []float64) *mat.SymDense {
	n := len(p.ids)
	info := mat.NewSymDense(n, nil)
	for _, e := range p.edges {
		games := e.wij + e.wji
		pij := pi[e.i] / (pi[e.i] + pi[e.j])
		w := games * pij * (1 - pij)
		info.SetSym(e.i, e.i, info.At(e.i, e.i)+w)
		info.SetSym(e.j, e.j, info.At(e.j, e.j)+w)
		info.SetSym(e.i, e.j, info.At(e.i, e.j)-w)
	}
	shift := 1 / float64(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			info.SetSym(i, j, info.At(i, j)+shift)
		}
	}
	return info
}

// variances returns the diagonal of the covariance of the log-abilities under
// the sum-to-zero constraint. The covariance is the pseudo-inverse of the
// information, obtained as (I + J/n)^-1 - J/n for a connected comparison
// graph. ok is false when the matrix cannot be factorized or a variance is
// not a finite non-negative number.
func (p *problem) variances(pi []float64) (v []float64, ok bool) {
	n := len(p.ids)
	var chol mat.Cholesky
	if !chol.Factorize(p.information(pi)) {
		return nil, false
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, false
	}

	shift := 1 / float64(n)
	v = make([]float64, n)
	for i := range v {
		x := cov.At(i, i) - shift
		if x < 0 && x > -negativeVarianceSlack {
			x = 0
		}
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		v[i] = x
	}
	return v, true
}

// newtonStep takes a Newton step on the log-abilities from pi, halving it
// until the log-likelihood does not decrease. The score vector sums to zero,
// so solving against the shifted information yields the pseudo-inverse step.
// ok is false when no acceptable step was found.
func (p *problem) newtonStep(pi, wins []float64) (next []float64, ok bool) {
	n := len(pi)
	score := make([]float64, n)
	copy(score, wins)
	for _, e := range p.edges {
		games := e.wij + e.wji
		pij := pi[e.i] / (pi[e.i] + pi[e.j])
		score[e.i] -= games * pij
		score[e.j] -= games * (1 - pij)
	}

	var chol mat.Cholesky
	if !chol.Factorize(p.information(pi)) {
		return nil, false
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, mat.NewVecDense(n, score)); err != nil {
		return nil, false
	}

	base := p.logLikelihood(pi)
	floor := base - likelihoodSlack*math.Abs(base)
	next = make([]float64, n)
	scale := 1.0
	for range maxStepHalvings {
		for i := range next {
			next[i] = pi[i] * math.Exp(scale*step.AtVec(i))
		}
		if ll := p.logLikelihood(next); ll >= floor {
			return next, true
		}
		scale /= 2
	}
	return nil, false
}
