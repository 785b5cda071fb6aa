// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	judgmentqueue "github.com/pwrank/pwrank/internal/adapters/mq/queue"
	workerpool "github.com/pwrank/pwrank/internal/adapters/mq/worker"
	repository "github.com/pwrank/pwrank/internal/adapters/repository"
	"github.com/pwrank/pwrank/internal/domain/bradleyterry"
	"github.com/pwrank/pwrank/internal/domain/dedupe"
	"github.com/pwrank/pwrank/internal/domain/ledger"
	"github.com/pwrank/pwrank/internal/domain/model"
	"github.com/pwrank/pwrank/internal/domain/ranking"
	"github.com/pwrank/pwrank/internal/domain/selection"
	"github.com/pwrank/pwrank/pkg/logger"
	"github.com/pwrank/pwrank/pkg/metrics"
)

const drainTimeout = 10 * time.Second

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    judgmentqueue.Queue
	pool     *workerpool.Pool
	fitter   *bradleyterry.Fitter
	ranker   *ranking.Ranker
	selector *selection.Selector
	selectMu sync.Mutex

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	maxPairJudgments int
	exploration      float64
	scaleMax         float64
	tolerance        float64
	maxIterations    int
	priorStrength    float64
	seed             int64

	// State
	started  bool
	enqueued atomic.Int64
	failed   atomic.Int64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        10_000,
		dedupeSize:       100_000,
		maxPairJudgments: 100,
		exploration:      selection.DefaultExplorationProbability,
		scaleMax:         ranking.DefaultScaleMax,
		tolerance:        1e-6,
		maxIterations:    200,
		priorStrength:    0.5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting ranking service...")

	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s.store = repository.NewMemoryStore(repository.WithMaxPairJudgments(s.maxPairJudgments))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = judgmentqueue.NewInMemoryQueue(judgmentqueue.WithCapacity(s.queueSize))
	s.fitter = bradleyterry.NewFitter(
		bradleyterry.WithTolerance(s.tolerance),
		bradleyterry.WithMaxIterations(s.maxIterations),
		bradleyterry.WithPriorStrength(s.priorStrength),
	)
	s.ranker = ranking.New(ranking.WithScaleMax(s.scaleMax))
	s.selector = selection.New(
		selection.WithExplorationProbability(s.exploration),
		selection.WithRand(rand.New(rand.NewSource(seed))), //nolint:gosec // selection is not security sensitive
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithErrorHandler(s.onApplyError),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("max_pair_judgments", s.maxPairJudgments),
		logger.Float64("exploration_probability", s.exploration),
		logger.Any("random_seed", seed),
	)
	return nil
}

// Stop drains queued judgments and shuts the workers down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping ranking service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// CreateSession registers a new ranking session with a generated id.
func (s *Service) CreateSession(ctx context.Context, name string) (repository.Session, error) {
	if err := s.ready(); err != nil {
		return repository.Session{}, err
	}
	sess, err := s.store.CreateSession(ctx, uuid.NewString(), strings.TrimSpace(name))
	if err != nil {
		return repository.Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info(ctx, "session created", logger.String("session_id", sess.ID), logger.String("name", sess.Name))
	return sess, nil
}

// Session returns a session summary.
func (s *Service) Session(ctx context.Context, id string) (repository.Session, error) {
	if err := s.ready(); err != nil {
		return repository.Session{}, err
	}
	return s.store.Session(ctx, id)
}

// AddItems registers items (generating ids where missing) and seeds one
// comparison per rating-adjacent pair so new items enter the model.
func (s *Service) AddItems(ctx context.Context, sessionID string, items []model.Item) ([]model.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	prepared := make([]model.Item, len(items))
	for i, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		it.Label = strings.TrimSpace(it.Label)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if math.IsNaN(it.InitialRating) || it.InitialRating < 0 || it.InitialRating > s.scaleMax {
			return nil, fmt.Errorf("%w: initial rating %g of %q outside [0, %g]", ErrInvalidItem, it.InitialRating, it.ID, s.scaleMax)
		}
		prepared[i] = it
	}

	added, err := s.store.AddItems(ctx, sessionID, prepared)
	if err != nil {
		return nil, fmt.Errorf("add items: %w", err)
	}
	if err := s.seedComparisons(ctx, sessionID); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "items added",
		logger.String("session_id", sessionID),
		logger.Int("requested", len(items)),
		logger.Int("added", len(added)),
	)
	return added, nil
}

func (s *Service) seedComparisons(ctx context.Context, sessionID string) error {
	all, err := s.store.Items(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("seed comparisons: %w", err)
	}
	var lookupErr error
	seeds := ledger.SeedByInitialRating(all, func(id string) bool {
		has, err := s.store.HasComparisons(ctx, sessionID, id)
		if err != nil && lookupErr == nil {
			lookupErr = err
		}
		return has
	})
	if lookupErr != nil {
		return fmt.Errorf("seed comparisons: %w", lookupErr)
	}
	for _, j := range seeds {
		j.ID = "seed-" + uuid.NewString()
		if err := s.store.ApplyJudgment(ctx, sessionID, j); err != nil {
			if errors.Is(err, repository.ErrPairLimit) {
				s.logger.Warn(ctx, "seed comparison skipped", logger.String("session_id", sessionID), logger.Error(err))
				continue
			}
			return fmt.Errorf("seed comparisons: %w", err)
		}
	}
	if len(seeds) > 0 {
		s.logger.Debug(ctx, "seeded comparisons", logger.String("session_id", sessionID), logger.Int("count", len(seeds)))
	}
	return nil
}

// SubmitJudgment validates a judgment and queues it for the workers. A judgment
// id already seen in the session is acknowledged as a duplicate and dropped.
func (s *Service) SubmitJudgment(ctx context.Context, sessionID string, j model.Judgment) (model.Receipt, error) {
	if err := s.ready(); err != nil {
		return model.Receipt{}, err
	}
	metrics.RecordJudgmentReceived()
	if err := s.check(ctx, sessionID, j); err != nil {
		return model.Receipt{}, err
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}

	key := sessionID + "/" + j.ID
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordJudgmentDuplicate()
		s.logger.Debug(ctx, "duplicate judgment skipped",
			logger.String("session_id", sessionID),
			logger.String("judgment_id", j.ID),
		)
		return model.Receipt{JudgmentID: j.ID, Duplicate: true}, nil
	}

	err := s.queue.Enqueue(ctx, judgmentqueue.Message{SessionID: sessionID, Judgment: j})
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordJudgmentRejected("backpressure")
		if errors.Is(err, judgmentqueue.ErrQueueFull) || errors.Is(err, judgmentqueue.ErrQueueClosed) {
			return model.Receipt{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.Receipt{}, fmt.Errorf("submit judgment: %w", err)
	}
	s.enqueued.Add(1)
	return model.Receipt{JudgmentID: j.ID}, nil
}

func (s *Service) check(ctx context.Context, sessionID string, j model.Judgment) error {
	if err := ledger.Validate(j); err != nil {
		metrics.RecordJudgmentRejected("invalid")
		return err
	}
	items, err := s.store.Items(ctx, sessionID)
	if err != nil {
		metrics.RecordJudgmentRejected("not_found")
		return err
	}
	var foundA, foundB bool
	for _, it := range items {
		foundA = foundA || it.ID == j.ItemA
		foundB = foundB || it.ID == j.ItemB
	}
	switch {
	case !foundA:
		metrics.RecordJudgmentRejected("unknown_item")
		return fmt.Errorf("%w: %s", repository.ErrUnknownItem, j.ItemA)
	case !foundB:
		metrics.RecordJudgmentRejected("unknown_item")
		return fmt.Errorf("%w: %s", repository.ErrUnknownItem, j.ItemB)
	}
	return nil
}

// onApplyError forgets a judgment that could not be applied so it may be resubmitted.
func (s *Service) onApplyError(ctx context.Context, m judgmentqueue.Message, err error) { //nolint:gocritic // hugeParam: Message is passed by value for channel semantics
	s.deduper.Unrecord(ctx, m.SessionID+"/"+m.Judgment.ID)
	metrics.RecordJudgmentRejected(rejectReason(err))
	s.failed.Add(1)
}

// Fit replays a session's comparisons into a ledger and fits the model.
func (s *Service) Fit(ctx context.Context, sessionID string) (*model.FittedModel, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	comparisons, err := s.store.Comparisons(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	l, err := ledger.Replay(comparisons)
	if err != nil {
		return nil, fmt.Errorf("replay comparisons: %w", err)
	}

	start := time.Now()
	fitted, err := s.fitter.Fit(l.Tallies())
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordFitError(fitErrorKind(err))
		s.logger.Debug(ctx, "fit failed", logger.String("session_id", sessionID), logger.Error(err))
		return nil, err
	}

	metrics.RecordFit(float64(elapsed.Microseconds())/1000, fitted.Iterations, fitted.Converged, fitted.Regularized)
	if !fitted.Converged {
		s.logger.Warn(ctx, "fit did not converge",
			logger.String("session_id", sessionID),
			logger.Int("iterations", fitted.Iterations),
		)
	}
	s.logger.Debug(ctx, "fit complete",
		logger.String("session_id", sessionID),
		logger.Int("items", fitted.Len()),
		logger.Int("pairs", l.Len()),
		logger.Int("iterations", fitted.Iterations),
		logger.Bool("regularized", fitted.Regularized),
		logger.Duration("took", elapsed),
	)
	return fitted, nil
}

// Ratings fits the session and maps abilities to the rating scale.
func (s *Service) Ratings(ctx context.Context, sessionID string) (model.RatingsReport, error) {
	fitted, err := s.Fit(ctx, sessionID)
	if err != nil {
		return model.RatingsReport{}, err
	}
	ratings, err := s.ranker.Ratings(fitted)
	if err != nil {
		return model.RatingsReport{}, err
	}
	return model.RatingsReport{
		SessionID:     sessionID,
		Ratings:       ratings,
		Converged:     fitted.Converged,
		Regularized:   fitted.Regularized,
		Iterations:    fitted.Iterations,
		LogLikelihood: fitted.LogLikelihood,
	}, nil
}

// NextPair fits the session and chooses the next pair to judge.
func (s *Service) NextPair(ctx context.Context, sessionID string) (selection.Choice, error) {
	fitted, err := s.Fit(ctx, sessionID)
	if err != nil {
		if errors.Is(err, bradleyterry.ErrInsufficientData) {
			return selection.Choice{}, fmt.Errorf("%w: %w", selection.ErrModelNotTrained, err)
		}
		return selection.Choice{}, err
	}

	s.selectMu.Lock()
	choice, err := s.selector.Next(fitted)
	s.selectMu.Unlock()
	if err != nil {
		return selection.Choice{}, err
	}
	metrics.RecordSelection(string(choice.Strategy))
	s.logger.Debug(ctx, "next pair selected",
		logger.String("session_id", sessionID),
		logger.String("item_a", choice.Pair.A),
		logger.String("item_b", choice.Pair.B),
		logger.String("strategy", string(choice.Strategy)),
	)
	return choice, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":                s.started,
		"workerCount":            s.workerCount,
		"queueSize":              s.queueSize,
		"dedupeSize":             s.dedupeSize,
		"explorationProbability": s.exploration,
		"ratingScaleMax":         s.scaleMax,
		"maxPairJudgments":       s.maxPairJudgments,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["sessions"] = s.store.SessionCount(ctx)
		stats["judgmentsApplied"] = s.pool.Applied()
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}

// WaitIdle blocks until every queued judgment has been applied or rejected,
// or ctx is done.
func (s *Service) WaitIdle(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for s.pool.Applied()+s.failed.Load() < s.enqueued.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func fitErrorKind(err error) string {
	switch {
	case errors.Is(err, bradleyterry.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, bradleyterry.ErrUnidentifiableModel):
		return "unidentifiable"
	case errors.Is(err, bradleyterry.ErrInvalidTally):
		return "invalid_tally"
	case errors.Is(err, bradleyterry.ErrDegenerateFit):
		return "degenerate"
	default:
		return "other"
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrPairLimit):
		return "pair_limit"
	case errors.Is(err, repository.ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "apply_error"
	}
}
