package api

import (
	"errors"
	"net/http"

	"github.com/pwrank/pwrank/internal/adapters/repository"
	service "github.com/pwrank/pwrank/internal/app"
	"github.com/pwrank/pwrank/internal/domain/bradleyterry"
	"github.com/pwrank/pwrank/internal/domain/ledger"
	"github.com/pwrank/pwrank/internal/domain/selection"
)

// ErrBadRequest marks malformed request bodies.
var ErrBadRequest = errors.New("bad request")

// Error records the handler operation that failed and the kind used to pick
// the response status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ledger.ErrInvalidComparison),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, repository.ErrInvalidItem),
		errors.Is(err, repository.ErrInvalidSession):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrUnknownItem):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, selection.ErrModelNotTrained):
		return http.StatusConflict, "model_not_trained"
	case errors.Is(err, bradleyterry.ErrInsufficientData):
		return http.StatusConflict, "insufficient_data"
	case errors.Is(err, bradleyterry.ErrUnidentifiableModel):
		return http.StatusConflict, "unidentifiable_model"
	case errors.Is(err, repository.ErrPairLimit):
		return http.StatusConflict, "pair_limit"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
