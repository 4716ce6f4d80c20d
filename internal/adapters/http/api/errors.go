package api

import (
	"errors"
	"net/http"

	service "github.com/okian/matchxai/internal/app"
	"github.com/okian/matchxai/internal/domain/attribution"
	"github.com/okian/matchxai/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Error codes carried in the error envelope.
const (
	codeInputShape        = "input_shape"
	codeModelUnavailable  = "model_unavailable"
	codeAttributionFailed = "attribution_failed"
	codeUnknownStrategy   = "unknown_strategy"
	codeBadRequest        = "bad_request"
	codeMethodNotAllowed  = "method_not_allowed"
	codeInternal          = "internal_error"
)

// Error tags an error with the operation that produced it and an optional kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of kind for op with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps an error to its status, envelope code and failing strategy.
func classify(err error) (status int, code, strategy string) {
	var se *attribution.StrategyError
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, codeMethodNotAllowed, ""
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest, ""
	case errors.Is(err, service.ErrUnknownStrategy):
		return http.StatusNotFound, codeUnknownStrategy, ""
	case errors.Is(err, service.ErrModelUnavailable):
		return http.StatusServiceUnavailable, codeModelUnavailable, ""
	case errors.As(err, &se):
		return http.StatusInternalServerError, codeAttributionFailed, se.Strategy
	case errors.Is(err, types.ErrInputShape):
		return http.StatusBadRequest, codeInputShape, ""
	default:
		return http.StatusInternalServerError, codeInternal, ""
	}
}
