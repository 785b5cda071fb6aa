// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Outcome is the result of a single pairwise judgment, read from ItemA's side.
type Outcome int

// Judgment outcomes.
const (
	OutcomeAWins Outcome = iota + 1
	OutcomeBWins
	OutcomeDraw
)

// String returns the wire form of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAWins:
		return "a_wins"
	case OutcomeBWins:
		return "b_wins"
	case OutcomeDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// Valid reports whether o is one of the defined outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeAWins || o == OutcomeBWins || o == OutcomeDraw
}

// ParseOutcome parses the wire form of an outcome (case-insensitive).
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a_wins", "a":
		return OutcomeAWins, nil
	case "b_wins", "b":
		return OutcomeBWins, nil
	case "draw":
		return OutcomeDraw, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// Judgment is one raw rater decision between two items.
type Judgment struct {
	ID      string  // unique id for idempotency
	ItemA   string  // first item as presented
	ItemB   string  // second item as presented
	Outcome Outcome // result from ItemA's point of view
	Count   int     // number of identical judgments
}

// Item is a rankable entity. The core never reads anything but ID.
type Item struct {
	ID            string
	Label         string
	InitialRating float64
}

// Pair is an unordered pair of item identifiers as returned to a rater.
type Pair struct {
	A string
	B string
}

// Receipt acknowledges a submitted judgment.
type Receipt struct {
	JudgmentID string `json:"judgment_id"`
	Duplicate  bool   `json:"duplicate"`
}
