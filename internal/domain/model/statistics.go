package model

// RecentJudgment is an applied judgment as reported in session statistics.
type RecentJudgment struct {
	ItemA   string `json:"item_a"`
	ItemB   string `json:"item_b"`
	LabelA  string `json:"label_a,omitempty"`
	LabelB  string `json:"label_b,omitempty"`
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// UncertaintyStats summarizes the defined standard errors of a fit.
type UncertaintyStats struct {
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// SessionStatistics reports how far a session's comparison graph has come.
// Uncertainty is zero and Fitted false when the session cannot be fitted yet.
type SessionStatistics struct {
	SessionID            string           `json:"session_id"`
	SessionName          string           `json:"session_name"`
	Items                int              `json:"item_count"`
	Pairs                int              `json:"pair_count"`
	Judgments            int              `json:"judgment_count"`
	MaxPairs             int              `json:"max_possible_pairs"`
	CompletionPercent    float64          `json:"completion_percentage"`
	PairsPerItem         map[int]int      `json:"comparison_distribution"`
	Recent               []RecentJudgment `json:"recent_comparisons"`
	Fitted               bool             `json:"fitted"`
	Uncertainty          UncertaintyStats `json:"uncertainty_stats"`
	NeedsMoreComparisons bool             `json:"needs_more_comparisons"`
}
