package ledger

import (
	"sort"

	"github.com/pwrank/pwrank/internal/domain/model"
)

// SeedByInitialRating proposes one judgment per pair of rating-adjacent items,
// skipping pairs where both items already have comparisons. The higher initial
// rating wins; equal ratings draw. hasComparisons may be nil.
func SeedByInitialRating(items []model.Item, hasComparisons func(itemID string) bool) []model.Judgment {
	if len(items) < 2 {
		return nil
	}
	sorted := make([]model.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].InitialRating != sorted[j].InitialRating {
			return sorted[i].InitialRating < sorted[j].InitialRating
		}
		return sorted[i].ID < sorted[j].ID
	})

	var out []model.Judgment
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		if a.ID == b.ID {
			continue
		}
		if hasComparisons != nil && hasComparisons(a.ID) && hasComparisons(b.ID) {
			continue
		}
		outcome := model.OutcomeDraw
		switch {
		case a.InitialRating > b.InitialRating:
			outcome = model.OutcomeAWins
		case a.InitialRating < b.InitialRating:
			outcome = model.OutcomeBWins
		}
		out = append(out, model.Judgment{ItemA: a.ID, ItemB: b.ID, Outcome: outcome, Count: 1})
	}
	return out
}
