// Package repository defines the session store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/pwrank/pwrank/internal/domain/model"
)

// Session summarizes a ranking session.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Items     int
	Pairs     int
	Judgments int
}

// Store holds ranking sessions, their items, and raw per-pair comparisons.
type Store interface {
	// CreateSession registers a new session. Returns ErrSessionExists if id is taken.
	CreateSession(ctx context.Context, id, name string) (Session, error)

	// Session returns the summary for id, or ErrNotFound.
	Session(ctx context.Context, id string) (Session, error)

	// SessionCount returns the number of sessions held.
	SessionCount(ctx context.Context) int

	// AddItems registers items in a session and returns the ones that were new.
	// Items whose identifier is already registered take the posted initial
	// rating, and the posted label when it is non-empty, but are not returned.
	AddItems(ctx context.Context, sessionID string, items []model.Item) ([]model.Item, error)

	// Items returns a session's items in registration order.
	Items(ctx context.Context, sessionID string) ([]model.Item, error)

	// ApplyJudgment adds a judgment to the raw comparison counts of its pair.
	ApplyJudgment(ctx context.Context, sessionID string, j model.Judgment) error

	// Comparisons returns the raw per-pair counts ordered by (ItemLow, ItemHigh).
	Comparisons(ctx context.Context, sessionID string) ([]model.Comparison, error)

	// Recent returns up to n of the most recently applied judgments, newest first.
	Recent(ctx context.Context, sessionID string, n int) ([]model.Judgment, error)

	// HasComparisons reports whether itemID appears in any recorded pair.
	HasComparisons(ctx context.Context, sessionID, itemID string) (bool, error)
}
