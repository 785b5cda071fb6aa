package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pwrank/pwrank/internal/domain/bradleyterry"
	"github.com/pwrank/pwrank/internal/domain/model"
	"github.com/pwrank/pwrank/pkg/logger"
)

const (
	recentJudgments = 10
	// Sessions whose largest ability standard error exceeds this need more judgments.
	needsMoreStdErr = 1.5
)

// Statistics reports pair coverage, per-item pair counts, the latest judgments
// and the spread of standard errors for a session. A session that cannot be
// fitted yet still gets coverage figures.
func (s *Service) Statistics(ctx context.Context, sessionID string) (model.SessionStatistics, error) {
	if err := s.ready(); err != nil {
		return model.SessionStatistics{}, err
	}
	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return model.SessionStatistics{}, err
	}
	items, err := s.store.Items(ctx, sessionID)
	if err != nil {
		return model.SessionStatistics{}, fmt.Errorf("statistics: %w", err)
	}
	comparisons, err := s.store.Comparisons(ctx, sessionID)
	if err != nil {
		return model.SessionStatistics{}, fmt.Errorf("statistics: %w", err)
	}
	recent, err := s.store.Recent(ctx, sessionID, recentJudgments)
	if err != nil {
		return model.SessionStatistics{}, fmt.Errorf("statistics: %w", err)
	}

	stats := model.SessionStatistics{
		SessionID:    sess.ID,
		SessionName:  sess.Name,
		Items:        sess.Items,
		Pairs:        sess.Pairs,
		Judgments:    sess.Judgments,
		PairsPerItem: make(map[int]int),
		Recent:       make([]model.RecentJudgment, 0, len(recent)),
	}
	if n := len(items); n > 1 {
		stats.MaxPairs = n * (n - 1) / 2
		stats.CompletionPercent = round(float64(stats.Pairs)/float64(stats.MaxPairs)*100, 2)
	}

	pairsOf := make(map[string]int, len(items))
	for _, c := range comparisons {
		pairsOf[c.ItemLow]++
		pairsOf[c.ItemHigh]++
	}
	labels := make(map[string]string, len(items))
	for _, it := range items {
		stats.PairsPerItem[pairsOf[it.ID]]++
		labels[it.ID] = it.Label
	}
	for _, j := range recent {
		stats.Recent = append(stats.Recent, model.RecentJudgment{
			ItemA:   j.ItemA,
			ItemB:   j.ItemB,
			LabelA:  labels[j.ItemA],
			LabelB:  labels[j.ItemB],
			Outcome: j.Outcome.String(),
			Count:   j.Count,
		})
	}

	fitted, err := s.Fit(ctx, sessionID)
	switch {
	case errors.Is(err, bradleyterry.ErrInsufficientData), errors.Is(err, bradleyterry.ErrUnidentifiableModel):
		stats.NeedsMoreComparisons = stats.Items > 1
		s.logger.Debug(ctx, "statistics without fit", logger.String("session_id", sessionID), logger.Error(err))
		return stats, nil
	case err != nil:
		return model.SessionStatistics{}, err
	}

	stats.Fitted = true
	stats.Uncertainty = uncertainty(fitted)
	stats.NeedsMoreComparisons = stats.Uncertainty.Max > needsMoreStdErr
	s.logger.Info(ctx, "statistics generated",
		logger.String("session_id", sessionID),
		logger.Int("items", stats.Items),
		logger.Int("pairs", stats.Pairs),
		logger.Float64("completion", stats.CompletionPercent),
	)
	return stats, nil
}

func uncertainty(fitted *model.FittedModel) model.UncertaintyStats {
	var (
		sum, n   float64
		low, top = math.Inf(1), math.Inf(-1)
	)
	for _, e := range fitted.Estimates {
		if !e.StdErrDefined {
			continue
		}
		sum += e.StdErr
		n++
		low = math.Min(low, e.StdErr)
		top = math.Max(top, e.StdErr)
	}
	if n == 0 {
		return model.UncertaintyStats{}
	}
	return model.UncertaintyStats{
		Average: round(sum/n, 3),
		Max:     round(top, 3),
		Min:     round(low, 3),
	}
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
