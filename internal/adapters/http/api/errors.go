package api

import (
	"errors"
	"net/http"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/selector"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrLimitExceeded     = errors.New("ntop exceeds the configured maximum")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Error records the handler operation that failed, the error kind used to
// pick a status code, and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes the kind and the cause.
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

// NewKind builds an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op to err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusFor maps an error to an HTTP status and a response code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, selector.ErrInvalidLimit),
		errors.Is(err, report.ErrInvalidWindow),
		errors.Is(err, report.ErrInvalidUser),
		errors.Is(err, report.ErrInvalidFraction):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, lookup.ErrUnavailable):
		return http.StatusServiceUnavailable, "lookup_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
