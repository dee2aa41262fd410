// Package lookup declares the read-only services reports consult: prices,
// round resolution dates and tax-year round ranges.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/roundreport/internal/domain/model"
)

// Service names used in errors and metrics.
const (
	ServiceSpot   = "spot_price"
	ServicePrice  = "price_history"
	ServiceDate   = "round_date"
	ServiceRanges = "round_range"
)

// ErrUnavailable marks a lookup that could not resolve its key.
var ErrUnavailable = errors.New("lookup unavailable")

// PriceOracle returns the current usd price of a token.
type PriceOracle interface {
	Spot(ctx context.Context, ticker string) (float64, error)
}

// PriceHistory returns the usd price of the token at round resolution.
type PriceHistory interface {
	At(ctx context.Context, round int) (float64, error)
}

// RoundDateResolver maps a round to its resolution date.
type RoundDateResolver interface {
	Resolve(ctx context.Context, round int) (time.Time, error)
}

// RoundRangeResolver maps a calendar year to the inclusive round window
// resolved in that year.
type RoundRangeResolver interface {
	Resolve(ctx context.Context, year, tournament int) (model.Window, error)
}

// Error describes a failed lookup. It matches ErrUnavailable with errors.Is
// and unwraps to its cause.
type Error struct {
	Service string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s %s", ErrUnavailable, e.Service, e.Key)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrUnavailable, e.Service, e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

// Wrap turns err into a lookup *Error unless it already is one.
func Wrap(service string, key any, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Service: service, Key: fmt.Sprint(key), Err: err}
}

// Missing builds an error for a key the service does not know.
func Missing(service string, key any) error {
	return &Error{Service: service, Key: fmt.Sprint(key)}
}
