// Package repository defines the session store interface and errors.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pwrank/pwrank/internal/domain/model"
	"github.com/pwrank/pwrank/pkg/metrics"
)

const (
	defaultMaxPairJudgments = 100
	recentCapacity          = 32
)

type pairKey struct {
	low, high string
}

type session struct {
	id        string
	name      string
	createdAt time.Time
	items     []model.Item
	itemIndex map[string]int
	pairs     map[pairKey]*model.Comparison
	compared  map[string]int
	judgments int
	recent    []model.Judgment // oldest first, at most recentCapacity
}

// MemoryStore is a process-local Store. All methods are safe for concurrent use.
type MemoryStore struct {
	mu               sync.RWMutex
	sessions         map[string]*session
	maxPairJudgments int
	now              func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:         make(map[string]*session),
		maxPairJudgments: defaultMaxPairJudgments,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession implements Store.CreateSession.
func (s *MemoryStore) CreateSession(_ context.Context, id, name string) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("%w: empty session id", ErrInvalidSession)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	sess := &session{
		id:        id,
		name:      name,
		createdAt: s.now(),
		itemIndex: make(map[string]int),
		pairs:     make(map[pairKey]*model.Comparison),
		compared:  make(map[string]int),
	}
	s.sessions[id] = sess
	metrics.UpdateSessions(len(s.sessions))
	return sess.summary(), nil
}

// Session implements Store.Session.
func (s *MemoryStore) Session(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return sess.summary(), nil
}

// SessionCount implements Store.SessionCount.
func (s *MemoryStore) SessionCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AddItems implements Store.AddItems.
func (s *MemoryStore) AddItems(_ context.Context, sessionID string, items []model.Item) ([]model.Item, error) {
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: empty item id", ErrInvalidItem)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	added := make([]model.Item, 0, len(items))
	for _, it := range items {
		if idx, ok := sess.itemIndex[it.ID]; ok {
			existing := &sess.items[idx]
			existing.InitialRating = it.InitialRating
			if it.Label != "" {
				existing.Label = it.Label
			}
			continue
		}
		sess.itemIndex[it.ID] = len(sess.items)
		sess.items = append(sess.items, it)
		added = append(added, it)
	}
	return added, nil
}

// Items implements Store.Items.
func (s *MemoryStore) Items(_ context.Context, sessionID string) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, len(sess.items))
	copy(out, sess.items)
	return out, nil
}

// ApplyJudgment implements Store.ApplyJudgment. The judgment is assumed to be
// well formed; only session membership and the pair cap are checked here.
func (s *MemoryStore) ApplyJudgment(_ context.Context, sessionID string, j model.Judgment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	for _, id := range []string{j.ItemA, j.ItemB} {
		if _, ok := sess.itemIndex[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
	}

	low, high := model.CanonicalPair(j.ItemA, j.ItemB)
	key := pairKey{low: low, high: high}
	c, ok := sess.pairs[key]
	if !ok {
		c = &model.Comparison{ItemLow: low, ItemHigh: high}
	}
	if s.maxPairJudgments > 0 && c.Total()+j.Count > s.maxPairJudgments {
		return fmt.Errorf("%w: %s/%s has %d of %d", ErrPairLimit, low, high, c.Total(), s.maxPairJudgments)
	}
	if !ok {
		sess.pairs[key] = c
		sess.compared[low]++
		sess.compared[high]++
	}

	winner := ""
	switch j.Outcome {
	case model.OutcomeAWins:
		winner = j.ItemA
	case model.OutcomeBWins:
		winner = j.ItemB
	}
	switch winner {
	case "":
		c.Draws += j.Count
	case low:
		c.WinsLow += j.Count
	default:
		c.WinsHigh += j.Count
	}
	sess.judgments += j.Count
	if len(sess.recent) == recentCapacity {
		copy(sess.recent, sess.recent[1:])
		sess.recent = sess.recent[:recentCapacity-1]
	}
	sess.recent = append(sess.recent, j)
	return nil
}

// Comparisons implements Store.Comparisons.
func (s *MemoryStore) Comparisons(_ context.Context, sessionID string) ([]model.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Comparison, 0, len(sess.pairs))
	for _, c := range sess.pairs {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemLow != out[j].ItemLow {
			return out[i].ItemLow < out[j].ItemLow
		}
		return out[i].ItemHigh < out[j].ItemHigh
	})
	return out, nil
}

// Recent implements Store.Recent. Only the last recentCapacity judgments are kept.
func (s *MemoryStore) Recent(_ context.Context, sessionID string, n int) ([]model.Judgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	n = min(max(n, 0), len(sess.recent))
	out := make([]model.Judgment, 0, n)
	for i := len(sess.recent) - 1; len(out) < n; i-- {
		out = append(out, sess.recent[i])
	}
	return out, nil
}

// HasComparisons implements Store.HasComparisons.
func (s *MemoryStore) HasComparisons(_ context.Context, sessionID, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	return sess.compared[itemID] > 0, nil
}

func (s *MemoryStore) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

func (sess *session) summary() Session {
	return Session{
		ID:        sess.id,
		Name:      sess.name,
		CreatedAt: sess.createdAt,
		Items:     len(sess.items),
		Pairs:     len(sess.pairs),
		Judgments: sess.judgments,
	}
}
