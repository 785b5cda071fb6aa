package simulation

import "time"

// Config holds configuration for a simulated ranking session.
type Config struct {
	BaseURL     string        // Base URL of the service
	Items       int           // Number of items with hidden abilities
	Judgments   int           // Number of judgments to submit
	Workers     int           // Number of concurrent raters
	Spread      float64       // Standard deviation of hidden log-abilities
	DrawRate    float64       // Probability that a rater calls a draw
	SeedRatings bool          // Send noisy initial ratings derived from the hidden abilities
	Seed        int64         // Random seed for abilities and raters
	Timeout     time.Duration // HTTP request timeout
	WaitTimeout time.Duration // How long to wait for queued judgments to apply
	Verbose     bool          // Log every judgment
}

// Stats holds simulation statistics.
type Stats struct {
	ItemsAdded         int
	JudgmentsSubmitted int
	JudgmentsAccepted  int
	JudgmentsDuplicate int
	JudgmentsRejected  int
	JudgmentsFailed    int
	OptimalPairs       int
	RandomPairs        int
	FallbackPairs      int // warm-up or random pairs chosen by the rater
	KendallTau         float64
	TopMatches         bool
	Completion         float64 // percent of possible pairs judged at least once
	MaxStdErr          float64
	NeedsMore          bool
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// Result is the outcome of a simulation run.
type Result struct {
	SessionID string
	Truth     map[string]float64
	Ratings   []Rating
	Stats     Stats
}
