// Package ledger aggregates raw pairwise judgments into canonical per-pair tallies.
//
// A Ledger is a transient value: callers build one per ranking query from the
// comparisons they persist and hand its Tallies to the fitter.
package ledger

import (
	"fmt"
	"sort"

	"github.com/pwrank/pwrank/internal/domain/model"
)

type pairKey struct {
	low, high string
}

// Ledger accumulates pair tallies. The zero value is not usable; call New.
// A Ledger is not safe for concurrent use.
type Ledger struct {
	tallies map[pairKey]*model.PairTally
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{tallies: make(map[pairKey]*model.PairTally)}
}

// Replay builds a ledger from stored raw comparisons. Draws are applied first,
// then each side's wins.
func Replay(comparisons []model.Comparison) (*Ledger, error) {
	l := New()
	for _, c := range comparisons {
		if err := l.RecordDraw(c.ItemLow, c.ItemHigh, c.Draws); err != nil {
			return nil, err
		}
		if err := l.RecordWin(c.ItemLow, c.ItemHigh, c.WinsLow); err != nil {
			return nil, err
		}
		if err := l.RecordWin(c.ItemHigh, c.ItemLow, c.WinsHigh); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// RecordWin adds count wins for winner over loser.
func (l *Ledger) RecordWin(winner, loser string, count int) error {
	t, err := l.tally(winner, loser, count)
	if err != nil {
		return err
	}
	if winner == t.ItemLow {
		t.WinLow += count
	} else {
		t.WinHigh += count
	}
	return nil
}

// RecordDraw splits count between both sides with floor division, so an odd
// count drops one judgment from the win totals. DrawCount keeps the raw count.
func (l *Ledger) RecordDraw(a, b string, count int) error {
	t, err := l.tally(a, b, count)
	if err != nil {
		return err
	}
	half := count / 2
	t.WinLow += half
	t.WinHigh += half
	t.DrawCount += count
	return nil
}

// Record applies a raw judgment according to its outcome.
func (l *Ledger) Record(j model.Judgment) error {
	switch j.Outcome {
	case model.OutcomeAWins:
		return l.RecordWin(j.ItemA, j.ItemB, j.Count)
	case model.OutcomeBWins:
		return l.RecordWin(j.ItemB, j.ItemA, j.Count)
	case model.OutcomeDraw:
		return l.RecordDraw(j.ItemA, j.ItemB, j.Count)
	default:
		return fmt.Errorf("%w: unknown outcome %d", ErrInvalidComparison, j.Outcome)
	}
}

// Tallies returns a snapshot of all pair tallies ordered by (ItemLow, ItemHigh).
func (l *Ledger) Tallies() []model.PairTally {
	out := make([]model.PairTally, 0, len(l.tallies))
	for _, t := range l.tallies {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemLow != out[j].ItemLow {
			return out[i].ItemLow < out[j].ItemLow
		}
		return out[i].ItemHigh < out[j].ItemHigh
	})
	return out
}

// Items returns every identifier that appears in a tally, sorted.
func (l *Ledger) Items() []string {
	seen := make(map[string]struct{}, 2*len(l.tallies))
	for k := range l.tallies {
		seen[k.low] = struct{}{}
		seen[k.high] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct pairs.
func (l *Ledger) Len() int {
	return len(l.tallies)
}

// Validate checks an incoming judgment without recording it. On top of what
// Record enforces, an incoming judgment must carry at least one game.
func Validate(j model.Judgment) error {
	if !j.Outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %d", ErrInvalidComparison, j.Outcome)
	}
	if err := validatePair(j.ItemA, j.ItemB, j.Count); err != nil {
		return err
	}
	if j.Count < 1 {
		return fmt.Errorf("%w: count %d, need at least 1", ErrInvalidComparison, j.Count)
	}
	return nil
}

func validatePair(a, b string, count int) error {
	switch {
	case a == "" || b == "":
		return fmt.Errorf("%w: empty item identifier", ErrInvalidComparison)
	case a == b:
		return fmt.Errorf("%w: item %q compared with itself", ErrInvalidComparison, a)
	case count < 0:
		return fmt.Errorf("%w: negative count %d", ErrInvalidComparison, count)
	}
	return nil
}

func (l *Ledger) tally(a, b string, count int) (*model.PairTally, error) {
	if err := validatePair(a, b, count); err != nil {
		return nil, err
	}
	low, high := model.CanonicalPair(a, b)
	key := pairKey{low: low, high: high}
	t, ok := l.tallies[key]
	if !ok {
		t = &model.PairTally{ItemLow: low, ItemHigh: high}
		l.tallies[key] = t
	}
	return t, nil
}
