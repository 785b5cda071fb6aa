// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pwrank/pwrank/internal/adapters/repository"
	"github.com/pwrank/pwrank/internal/domain/bradleyterry"
	"github.com/pwrank/pwrank/internal/domain/model"
	"github.com/pwrank/pwrank/internal/domain/selection"
	"github.com/pwrank/pwrank/pkg/logger"
)

const (
	maxBodyBytes         = 1 << 20
	defaultInitialRating = 5.0
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context, name string) (repository.Session, error)
	Session(ctx context.Context, id string) (repository.Session, error)
	AddItems(ctx context.Context, sessionID string, items []model.Item) ([]model.Item, error)

	// SubmitJudgment queues a judgment. Returns an error kind mapped to 429 on backpressure.
	SubmitJudgment(ctx context.Context, sessionID string, j model.Judgment) (model.Receipt, error)

	Ratings(ctx context.Context, sessionID string) (model.RatingsReport, error)
	NextPair(ctx context.Context, sessionID string) (selection.Choice, error)
	Statistics(ctx context.Context, sessionID string) (model.SessionStatistics, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithDefaultInitialRating sets the initial rating for items posted without one.
func WithDefaultInitialRating(r float64) Option {
	return func(s *Server) {
		if r >= 0 {
			s.defaultInitialRating = r
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	rankingHandler  *RankingHandler

	defaultInitialRating float64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		rankingHandler:       NewRankingHandler(deps),
		defaultInitialRating: defaultInitialRating,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessionsHandler = NewSessionsHandler(deps, s.defaultInitialRating)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreateSession, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGetSession, "session"))
	mux.HandleFunc("POST /sessions/{id}/items", MetricsMiddleware(s.sessionsHandler.HandleAddItems, "items"))
	mux.HandleFunc("POST /sessions/{id}/judgments", MetricsMiddleware(s.rankingHandler.HandlePostJudgment, "judgments"))
	mux.HandleFunc("GET /sessions/{id}/next", MetricsMiddleware(s.rankingHandler.HandleGetNext, "next"))
	mux.HandleFunc("GET /sessions/{id}/ratings", MetricsMiddleware(s.rankingHandler.HandleGetRatings, "ratings"))
	mux.HandleFunc("GET /sessions/{id}/statistics", MetricsMiddleware(s.rankingHandler.HandleGetStatistics, "statistics"))
}

type sessionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Items     int       `json:"items"`
	Pairs     int       `json:"pairs"`
	Judgments int       `json:"judgments"`
}

func toSessionResponse(s repository.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Items:     s.Items,
		Pairs:     s.Pairs,
		Judgments: s.Judgments,
	}
}

type errorResponse struct {
	Code       string     `json:"code"`
	Message    string     `json:"message"`
	Components [][]string `json:"components,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes it as a JSON error body.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
	}
	var unidentifiable *bradleyterry.UnidentifiableModelError
	if errors.As(err, &unidentifiable) {
		resp.Components = unidentifiable.Components
	}
	if status >= http.StatusInternalServerError {
		logger.Get().Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeJSON(w, status, resp)
}
