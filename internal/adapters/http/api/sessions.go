// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	"github.com/pwrank/pwrank/internal/domain/model"
)

type createSessionRequest struct {
	Name string `json:"name"`
}

type itemRequest struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	InitialRating *float64 `json:"initial_rating"`
}

type addItemsRequest struct {
	Items []itemRequest `json:"items"`
}

type itemResponse struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	InitialRating float64 `json:"initial_rating"`
}

type addItemsResponse struct {
	Added []itemResponse `json:"added"`
}

// SessionsHandler handles session and item requests.
type SessionsHandler struct {
	deps          Dependencies
	defaultRating float64
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies, defaultRating float64) *SessionsHandler {
	return &SessionsHandler{deps: deps, defaultRating: defaultRating}
}

// HandleCreateSession handles POST /sessions requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, err := h.deps.CreateSession(r.Context(), req.Name)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// HandleGetSession handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// HandleAddItems handles POST /sessions/{id}/items requests.
func (h *SessionsHandler) HandleAddItems(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_items"
	var req addItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Items) == 0 {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, errors.New("missing items")))
		return
	}

	items := make([]model.Item, len(req.Items))
	for i, it := range req.Items {
		rating := h.defaultRating
		if it.InitialRating != nil {
			rating = *it.InitialRating
		}
		items[i] = model.Item{ID: it.ID, Label: it.Label, InitialRating: rating}
	}

	added, err := h.deps.AddItems(r.Context(), r.PathValue("id"), items)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	resp := addItemsResponse{Added: make([]itemResponse, len(added))}
	for i, it := range added {
		resp.Added[i] = itemResponse{ID: it.ID, Label: it.Label, InitialRating: it.InitialRating}
	}
	writeJSON(w, http.StatusCreated, resp)
}
