package simulation

import (
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Oracle holds hidden abilities and answers comparisons with Bradley-Terry
// probabilities. It is safe for concurrent use.
type Oracle struct {
	mu        sync.Mutex
	rng       *rand.Rand
	abilities map[string]float64
	ids       []string
	covered   map[string]bool
	drawRate  float64
}

// NewOracle draws n hidden log-abilities from N(0, spread²).
func NewOracle(n int, spread, drawRate float64, seed int64) *Oracle {
	o := &Oracle{
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // simulation only
		abilities: make(map[string]float64, n),
		ids:       make([]string, 0, n),
		covered:   make(map[string]bool, n),
		drawRate:  drawRate,
	}
	for range n {
		id := uuid.NewString()
		o.abilities[id] = o.rng.NormFloat64() * spread
		o.ids = append(o.ids, id)
	}
	return o
}

// IDs returns item ids in creation order.
func (o *Oracle) IDs() []string {
	return append([]string(nil), o.ids...)
}

// Truth returns a copy of the hidden log-abilities.
func (o *Oracle) Truth() map[string]float64 {
	out := make(map[string]float64, len(o.abilities))
	for k, v := range o.abilities {
		out[k] = v
	}
	return out
}

// InitialRating maps an item's hidden ability onto [0, ScaleMax] with noise.
func (o *Oracle) InitialRating(id string) float64 {
	o.mu.Lock()
	noise := o.rng.NormFloat64() * initialRatingNoise
	o.mu.Unlock()
	r := ScaleMax/2 + o.abilities[id] + noise
	return math.Max(0, math.Min(ScaleMax, r))
}

// WinProbability returns P(a beats b) under the Bradley-Terry model.
func (o *Oracle) WinProbability(a, b string) float64 {
	return 1 / (1 + math.Exp(o.abilities[b]-o.abilities[a]))
}

// Judge decides a comparison between a and b.
func (o *Oracle) Judge(a, b string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rng.Float64() < o.drawRate {
		return "draw"
	}
	if o.rng.Float64() < o.WinProbability(a, b) {
		return "a_wins"
	}
	return "b_wins"
}

// RandomPair returns two distinct items chosen uniformly.
func (o *Oracle) RandomPair() (string, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.rng.Intn(len(o.ids))
	j := o.rng.Intn(len(o.ids) - 1)
	if j >= i {
		j++
	}
	return o.ids[i], o.ids[j]
}

// WarmupPair pairs an item that has not been judged yet with a random other
// item. Items only enter the fitted model once they have been compared, so
// raters cover every item before following the service's proposals.
func (o *Oracle) WarmupPair() (string, string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, id := range o.ids {
		if o.covered[id] {
			continue
		}
		j := o.rng.Intn(len(o.ids) - 1)
		if j >= i {
			j++
		}
		o.covered[id] = true
		o.covered[o.ids[j]] = true
		return id, o.ids[j], true
	}
	return "", "", false
}
