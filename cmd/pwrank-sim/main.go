package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/pwrank/pwrank/internal/simulation"
	"github.com/pwrank/pwrank/pkg/logger"
)

// Default configuration constants.
const (
	defaultItems       = 20
	defaultJudgments   = 2000
	defaultWorkers     = 4
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		items       = flag.Int("items", defaultItems, "Number of items with hidden abilities")
		judgments   = flag.Int("judgments", defaultJudgments, "Number of judgments to submit")
		workers     = flag.Int("workers", defaultWorkers, "Number of concurrent raters")
		spread      = flag.Float64("spread", simulation.DefaultSpread, "Standard deviation of hidden log-abilities")
		drawRate    = flag.Float64("draw-rate", 0, "Probability that a rater calls a draw")
		seedRatings = flag.Bool("seed-ratings", false, "Send noisy initial ratings with the items")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed for abilities and raters")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait        = flag.Duration("wait", simulation.DefaultWaitTimeout, "How long to wait for queued judgments")
		format      = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose     = flag.Bool("verbose", false, "Log every judgment")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &simulation.Config{
		BaseURL:     *baseURL,
		Items:       *items,
		Judgments:   *judgments,
		Workers:     *workers,
		Spread:      *spread,
		DrawRate:    *drawRate,
		SeedRatings: *seedRatings,
		Seed:        *seed,
		Timeout:     *timeout,
		WaitTimeout: *wait,
		Verbose:     *verbose,
	}

	res, err := simulation.Run(ctx, config)
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
	logger.Get().Info(ctx, "simulation finished",
		logger.String("session_id", res.SessionID),
		logger.Float64("kendall_tau", res.Stats.KendallTau))
}
