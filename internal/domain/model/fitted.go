package model

import "sort"

// AbilityEstimate is one item's fitted Bradley-Terry strength.
type AbilityEstimate struct {
	ItemID        string
	Ability       float64 // log-odds scale, geometric mean of exp(Ability) is 1
	StdErr        float64 // meaningful only when StdErrDefined
	StdErrDefined bool
	Rank          int // 1 = strongest
	Comparisons   int // raw judgments the item took part in, draws included
}

// FittedModel is the result of one fit. Estimates are ordered by descending ability.
type FittedModel struct {
	Estimates     []AbilityEstimate
	Converged     bool // false carries the non-convergence warning
	Iterations    int
	LogLikelihood float64
	Regularized   bool // prior pseudo-counts were needed for a finite estimate
}

// Len returns the number of fitted items; nil-safe.
func (m *FittedModel) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Estimates)
}

// Estimate looks up an item by identifier.
func (m *FittedModel) Estimate(itemID string) (AbilityEstimate, bool) {
	if m == nil {
		return AbilityEstimate{}, false
	}
	for _, e := range m.Estimates {
		if e.ItemID == itemID {
			return e, true
		}
	}
	return AbilityEstimate{}, false
}

// Ascending returns a copy of the estimates sorted by ascending ability,
// ties broken by identifier.
func (m *FittedModel) Ascending() []AbilityEstimate {
	if m == nil {
		return nil
	}
	out := make([]AbilityEstimate, len(m.Estimates))
	copy(out, m.Estimates)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ability != out[j].Ability {
			return out[i].Ability < out[j].Ability
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// Rating is the user-facing view of one fitted item.
type Rating struct {
	ItemID        string  `json:"item_id"`
	Rating        float64 `json:"rating"`
	StdErr        float64 `json:"stderr"`
	StdErrDefined bool    `json:"stderr_defined"`
	Ability       float64 `json:"ability"`
	Rank          int     `json:"rank"`
	Comparisons   int     `json:"comparisons"`
}

// RatingsReport is a session's ratings plus the fit diagnostics behind them.
type RatingsReport struct {
	SessionID     string   `json:"session_id"`
	Ratings       []Rating `json:"ratings"`
	Converged     bool     `json:"converged"`
	Regularized   bool     `json:"regularized"`
	Iterations    int      `json:"iterations"`
	LogLikelihood float64  `json:"log_likelihood"`
}
