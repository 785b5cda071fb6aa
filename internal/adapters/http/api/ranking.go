// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pwrank/pwrank/internal/domain/model"
)

// judgmentRequest is the body of POST /sessions/{id}/judgments.
type judgmentRequest struct {
	JudgmentID string `json:"judgment_id"`
	ItemA      string `json:"item_a"`
	ItemB      string `json:"item_b"`
	Outcome    string `json:"outcome"`
	Count      *int   `json:"count"`
}

func (j judgmentRequest) toJudgment() (model.Judgment, error) {
	switch {
	case strings.TrimSpace(j.ItemA) == "":
		return model.Judgment{}, errors.New("missing item_a")
	case strings.TrimSpace(j.ItemB) == "":
		return model.Judgment{}, errors.New("missing item_b")
	}
	outcome, err := model.ParseOutcome(j.Outcome)
	if err != nil {
		return model.Judgment{}, err
	}
	count := 1
	if j.Count != nil {
		count = *j.Count
	}
	if count < 1 {
		return model.Judgment{}, fmt.Errorf("count %d, need at least 1", count)
	}
	return model.Judgment{
		ID:      strings.TrimSpace(j.JudgmentID),
		ItemA:   strings.TrimSpace(j.ItemA),
		ItemB:   strings.TrimSpace(j.ItemB),
		Outcome: outcome,
		Count:   count,
	}, nil
}

type ackResponse struct {
	Status     string `json:"status"`
	JudgmentID string `json:"judgment_id"`
	Duplicate  bool   `json:"duplicate"`
}

type nextResponse struct {
	ItemA    string `json:"item_a"`
	ItemB    string `json:"item_b"`
	Strategy string `json:"strategy"`
}

// RankingHandler handles judgment, next-pair, ratings and statistics requests.
type RankingHandler struct {
	deps Dependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps Dependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandlePostJudgment handles POST /sessions/{id}/judgments requests.
func (h *RankingHandler) HandlePostJudgment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_judgment"
	var req judgmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	j, err := req.toJudgment()
	if err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.SubmitJudgment(r.Context(), r.PathValue("id"), j)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", JudgmentID: receipt.JudgmentID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JudgmentID: receipt.JudgmentID})
}

// HandleGetNext handles GET /sessions/{id}/next requests.
func (h *RankingHandler) HandleGetNext(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_next"
	choice, err := h.deps.NextPair(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nextResponse{
		ItemA:    choice.Pair.A,
		ItemB:    choice.Pair.B,
		Strategy: string(choice.Strategy),
	})
}

// HandleGetRatings handles GET /sessions/{id}/ratings requests.
func (h *RankingHandler) HandleGetRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ratings"
	report, err := h.deps.Ratings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetStatistics handles GET /sessions/{id}/statistics requests.
func (h *RankingHandler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_statistics"
	stats, err := h.deps.Statistics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
