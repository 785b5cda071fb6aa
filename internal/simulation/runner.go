// Package simulation drives a running ranking service with synthetic raters
// whose answers follow hidden Bradley-Terry abilities, then checks how well
// the fitted ranking recovers them.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pwrank/pwrank/pkg/logger"
)

// Run executes a complete simulation against config.BaseURL.
func Run(ctx context.Context, config *Config) (*Result, error) {
	if config.Items < 2 {
		return nil, fmt.Errorf("need at least 2 items, got %d", config.Items)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Spread <= 0 {
		config.Spread = DefaultSpread
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = DefaultWaitTimeout
	}

	stats := Stats{StartTime: time.Now()}
	log := logger.Get().Named("simulation")
	log.Info(ctx, "starting simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("items", config.Items),
		logger.Int("judgments", config.Judgments),
		logger.Int("workers", config.Workers),
		logger.Float64("drawRate", config.DrawRate),
		logger.Bool("seedRatings", config.SeedRatings))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create the session and register items
	oracle := NewOracle(config.Items, config.Spread, config.DrawRate, config.Seed)
	session, err := client.CreateSession(ctx, "simulation-"+time.Now().UTC().Format("20060102T150405"))
	if err != nil {
		return nil, fmt.Errorf("session creation failed: %w", err)
	}
	items := make([]Item, 0, config.Items)
	for i, id := range oracle.IDs() {
		it := Item{ID: id, Label: fmt.Sprintf("item-%d", i+1)}
		if config.SeedRatings {
			r := oracle.InitialRating(id)
			it.InitialRating = &r
		}
		items = append(items, it)
	}
	if err := client.AddItems(ctx, session.ID, items); err != nil {
		return nil, fmt.Errorf("item registration failed: %w", err)
	}
	stats.ItemsAdded = len(items)
	baseline, err := client.Session(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}

	// Step 3: Let raters judge the pairs the service proposes
	applied := rate(ctx, client, oracle, session.ID, config, &stats)

	// Step 4: Wait for the queue to drain
	if err := waitApplied(ctx, client, session.ID, baseline.Judgments+applied, config.WaitTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for judgments failed: %w", err)
		}
		// Judgments dropped by the pair cap never reach the ledger.
		log.Warn(ctx, "not every accepted judgment was applied", logger.Error(err))
	}

	// Step 5: Fetch and verify ratings
	report, err := client.Ratings(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("ratings retrieval failed: %w", err)
	}
	truth := oracle.Truth()
	verifyResults(ctx, truth, report.Ratings, &stats)

	// Step 6: Report coverage
	if cov, err := client.Statistics(ctx, session.ID); err != nil {
		log.Warn(ctx, "statistics retrieval failed", logger.Error(err))
	} else {
		stats.Completion = cov.CompletionPercent
		stats.MaxStdErr = cov.Uncertainty.Max
		stats.NeedsMore = cov.NeedsMoreComparisons
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, &stats)

	return &Result{SessionID: session.ID, Truth: truth, Ratings: report.Ratings, Stats: stats}, nil
}

// rate runs config.Workers raters until config.Judgments have been submitted.
// It returns the number of accepted judgments.
func rate(ctx context.Context, client *Client, oracle *Oracle, sessionID string, config *Config, stats *Stats) int {
	var (
		remaining atomic.Int64
		accepted  atomic.Int64
		duplicate atomic.Int64
		rejected  atomic.Int64
		failed    atomic.Int64
		optimal   atomic.Int64
		random    atomic.Int64
		fallback  atomic.Int64
	)
	remaining.Store(int64(config.Judgments))

	var wg sync.WaitGroup
	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for remaining.Add(-1) >= 0 {
				if ctx.Err() != nil {
					return
				}
				a, b, warm := "", "", false
				if !config.SeedRatings {
					a, b, warm = oracle.WarmupPair()
				}
				var (
					next Next
					err  error
				)
				if !warm {
					next, err = client.Next(ctx, sessionID)
				}
				switch {
				case warm:
					fallback.Add(1)
				case err == nil:
					a, b = next.ItemA, next.ItemB
					if next.Strategy == "optimal" {
						optimal.Add(1)
					} else {
						random.Add(1)
					}
				case errors.Is(err, ErrModelNotTrained):
					a, b = oracle.RandomPair()
					fallback.Add(1)
				default:
					logger.Get().Warn(ctx, "next pair failed", logger.Error(err))
					failed.Add(1)
					continue
				}

				j := Judgment{
					JudgmentID: uuid.NewString(),
					ItemA:      a,
					ItemB:      b,
					Outcome:    oracle.Judge(a, b),
					Count:      1,
				}
				ack, err := submitWithRetry(ctx, client, sessionID, j)
				switch {
				case err == nil && ack.Duplicate:
					duplicate.Add(1)
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, ErrRejected):
					rejected.Add(1)
				default:
					failed.Add(1)
				}
				if config.Verbose {
					logger.Get().Debug(ctx, "judgment submitted",
						logger.String("item_a", a),
						logger.String("item_b", b),
						logger.String("outcome", j.Outcome),
						logger.Error(err))
				}
			}
		}()
	}
	wg.Wait()

	stats.JudgmentsAccepted = int(accepted.Load())
	stats.JudgmentsDuplicate = int(duplicate.Load())
	stats.JudgmentsRejected = int(rejected.Load())
	stats.JudgmentsFailed = int(failed.Load())
	stats.JudgmentsSubmitted = stats.JudgmentsAccepted + stats.JudgmentsDuplicate + stats.JudgmentsRejected + stats.JudgmentsFailed
	stats.OptimalPairs = int(optimal.Load())
	stats.RandomPairs = int(random.Load())
	stats.FallbackPairs = int(fallback.Load())
	return stats.JudgmentsAccepted
}

func submitWithRetry(ctx context.Context, client *Client, sessionID string, j Judgment) (Ack, error) {
	for range MaxBackpressureTry {
		ack, err := client.Submit(ctx, sessionID, j)
		if !errors.Is(err, ErrBackpressure) {
			return ack, err
		}
		select {
		case <-ctx.Done():
			return Ack{}, ctx.Err()
		case <-time.After(BackpressureBackoff):
		}
	}
	return Ack{}, ErrBackpressure
}

// waitApplied polls the session until its judgment total reaches want.
func waitApplied(ctx context.Context, client *Client, sessionID string, want int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		s, err := client.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Judgments >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d of %d judgments applied: %w", s.Judgments, want, ctx.Err())
		case <-ticker.C:
		}
	}
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var judgmentsPerSecond float64
	if stats.Duration > 0 {
		judgmentsPerSecond = float64(stats.JudgmentsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("itemsAdded", stats.ItemsAdded),
		logger.Int("judgmentsSubmitted", stats.JudgmentsSubmitted),
		logger.Int("judgmentsAccepted", stats.JudgmentsAccepted),
		logger.Int("judgmentsDuplicate", stats.JudgmentsDuplicate),
		logger.Int("judgmentsRejected", stats.JudgmentsRejected),
		logger.Int("judgmentsFailed", stats.JudgmentsFailed),
		logger.Int("optimalPairs", stats.OptimalPairs),
		logger.Int("randomPairs", stats.RandomPairs),
		logger.Int("fallbackPairs", stats.FallbackPairs),
		logger.Float64("kendallTau", stats.KendallTau),
		logger.Bool("topMatches", stats.TopMatches),
		logger.Float64("completion", stats.Completion),
		logger.Float64("maxStdErr", stats.MaxStdErr),
		logger.Bool("needsMore", stats.NeedsMore),
		logger.Duration("duration", stats.Duration),
		logger.Float64("judgmentsPerSecond", judgmentsPerSecond))
}
