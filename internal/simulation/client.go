package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrModelNotTrained is returned by Next when the service cannot propose a pair yet.
var ErrModelNotTrained = errors.New("model not trained")

// ErrBackpressure is returned by Submit when the service queue is full.
var ErrBackpressure = errors.New("backpressure")

// ErrRejected is returned by Submit when the service refuses the judgment.
var ErrRejected = errors.New("judgment rejected")

// Session mirrors the session resource.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Items     int    `json:"items"`
	Pairs     int    `json:"pairs"`
	Judgments int    `json:"judgments"`
}

// Item is an item to register.
type Item struct {
	ID            string   `json:"id"`
	Label         string   `json:"label,omitempty"`
	InitialRating *float64 `json:"initial_rating,omitempty"`
}

// Judgment is a judgment to submit.
type Judgment struct {
	JudgmentID string `json:"judgment_id"`
	ItemA      string `json:"item_a"`
	ItemB      string `json:"item_b"`
	Outcome    string `json:"outcome"`
	Count      int    `json:"count"`
}

// Ack represents the response from judgment submission.
type Ack struct {
	Status     string `json:"status"`
	JudgmentID string `json:"judgment_id"`
	Duplicate  bool   `json:"duplicate"`
}

// Next is a proposed pair.
type Next struct {
	ItemA    string `json:"item_a"`
	ItemB    string `json:"item_b"`
	Strategy string `json:"strategy"`
}

// Rating is one entry of the ratings report.
type Rating struct {
	ItemID        string  `json:"item_id"`
	Rating        float64 `json:"rating"`
	StdErr        float64 `json:"stderr"`
	StdErrDefined bool    `json:"stderr_defined"`
	Rank          int     `json:"rank"`
}

// Report is the ratings report.
type Report struct {
	Ratings     []Rating `json:"ratings"`
	Converged   bool     `json:"converged"`
	Regularized bool     `json:"regularized"`
	Iterations  int      `json:"iterations"`
}

// Coverage is the part of the statistics report the simulation checks.
type Coverage struct {
	Pairs                int     `json:"pair_count"`
	MaxPairs             int     `json:"max_possible_pairs"`
	CompletionPercent    float64 `json:"completion_percentage"`
	Fitted               bool    `json:"fitted"`
	NeedsMoreComparisons bool    `json:"needs_more_comparisons"`
	Uncertainty          struct {
		Max float64 `json:"max"`
	} `json:"uncertainty_stats"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to the ranking service over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a new HTTP client with timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health checks that the service responds.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return fmt.Errorf("health check failed with status: %d", status)
	}
	return nil
}

// CreateSession creates a named session.
func (c *Client) CreateSession(ctx context.Context, name string) (Session, error) {
	var s Session
	err := c.call(ctx, http.MethodPost, "/sessions", map[string]string{"name": name}, StatusCreated, &s)
	return s, err
}

// Session fetches a session.
func (c *Client) Session(ctx context.Context, id string) (Session, error) {
	var s Session
	err := c.call(ctx, http.MethodGet, "/sessions/"+id, nil, StatusOK, &s)
	return s, err
}

// AddItems registers items in a session.
func (c *Client) AddItems(ctx context.Context, sessionID string, items []Item) error {
	return c.call(ctx, http.MethodPost, "/sessions/"+sessionID+"/items", map[string][]Item{"items": items}, StatusCreated, nil)
}

// Next asks the service for the next pair to compare.
func (c *Client) Next(ctx context.Context, sessionID string) (Next, error) {
	var n Next
	status, body, err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/next", nil)
	if err != nil {
		return n, err
	}
	switch status {
	case StatusOK:
		return n, json.Unmarshal(body, &n)
	case StatusConflict:
		return n, fmt.Errorf("%w: %s", ErrModelNotTrained, decodeError(body))
	default:
		return n, fmt.Errorf("next pair: status %d: %s", status, decodeError(body))
	}
}

// Submit posts a judgment.
func (c *Client) Submit(ctx context.Context, sessionID string, j Judgment) (Ack, error) {
	var ack Ack
	status, body, err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/judgments", j)
	if err != nil {
		return ack, err
	}
	switch status {
	case StatusAccepted, StatusOK:
		return ack, json.Unmarshal(body, &ack)
	case StatusTooManyRequests:
		return ack, ErrBackpressure
	default:
		return ack, fmt.Errorf("%w: status %d: %s", ErrRejected, status, decodeError(body))
	}
}

// Ratings fetches the fitted ratings.
func (c *Client) Ratings(ctx context.Context, sessionID string) (Report, error) {
	var r Report
	err := c.call(ctx, http.MethodGet, "/sessions/"+sessionID+"/ratings", nil, StatusOK, &r)
	return r, err
}

// Statistics fetches the session's coverage and uncertainty report.
func (c *Client) Statistics(ctx context.Context, sessionID string) (Coverage, error) {
	var cov Coverage
	err := c.call(ctx, http.MethodGet, "/sessions/"+sessionID+"/statistics", nil, StatusOK, &cov)
	return cov, err
}

func (c *Client) call(ctx context.Context, method, path string, in any, want int, out any) error {
	status, body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%s %s: status %d: %s", method, path, status, decodeError(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func decodeError(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil || e.Code == "" {
		return string(bytes.TrimSpace(body))
	}
	return e.Code + ": " + e.Message
}
