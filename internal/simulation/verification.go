package simulation

import (
	"context"
	"sort"

	"github.com/pwrank/pwrank/pkg/logger"
)

// KendallTau returns the Kendall rank correlation (tau-a) between two
// score assignments over the ids present in both. Ties count as neither
// concordant nor discordant.
func KendallTau(truth, estimate map[string]float64) float64 {
	ids := make([]string, 0, len(truth))
	for id := range truth {
		if _, ok := estimate[id]; ok {
			ids = append(ids, id)
		}
	}
	n := len(ids)
	if n < 2 {
		return 0
	}
	var concordant, discordant int
	for i := range n {
		for j := i + 1; j < n; j++ {
			dt := truth[ids[i]] - truth[ids[j]]
			de := estimate[ids[i]] - estimate[ids[j]]
			switch {
			case dt*de > 0:
				concordant++
			case dt*de < 0:
				discordant++
			}
		}
	}
	return float64(concordant-discordant) / float64(n*(n-1)/2)
}

// verifyResults compares the fitted ratings with the hidden abilities.
func verifyResults(ctx context.Context, truth map[string]float64, ratings []Rating, stats *Stats) {
	estimate := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		estimate[r.ItemID] = r.Rating
	}
	stats.KendallTau = KendallTau(truth, estimate)

	for _, r := range ratings {
		if r.Rank == 1 && r.ItemID == topID(truth) {
			stats.TopMatches = true
		}
	}

	logger.Get().Info(ctx, "ranking verified",
		logger.Float64("kendall_tau", stats.KendallTau),
		logger.Bool("top_matches", stats.TopMatches))
}

func topID(scores map[string]float64) string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
