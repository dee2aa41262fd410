// Package selector slices ranked tables down to their top or bottom rows.
package selector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLimit is returned when a limit cannot be parsed.
var ErrInvalidLimit = errors.New("invalid ntop")

// Limit is an optional row count. The zero value selects every row.
// A non-negative count keeps the first rows of a descending table (the top
// performers); a negative count keeps the last |n| rows (the bottom ones).
type Limit struct {
	n   int
	set bool
}

// All selects the whole table.
func All() Limit { return Limit{} }

// N selects n rows from the front, or |n| rows from the back when n < 0.
func N(n int) Limit { return Limit{n: n, set: true} }

// IsSet reports whether a count was given.
func (l Limit) IsSet() bool { return l.set }

// Value returns the count and whether one was given.
func (l Limit) Value() (int, bool) { return l.n, l.set }

func (l Limit) String() string {
	if !l.set {
		return "all"
	}
	return strconv.Itoa(l.n)
}

// Parse reads a limit from its textual form. Empty input selects all rows.
func Parse(s string) (Limit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Limit{}, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	return N(n), nil
}

// Apply returns the contiguous slice of rows selected by l.
// rows[:n] for n >= 0 and rows[len+n:] for n < 0, clamped to the table.
func Apply[T any](rows []T, l Limit) []T {
	if !l.set {
		return rows
	}
	if l.n >= 0 {
		return rows[:min(l.n, len(rows))]
	}
	return rows[max(len(rows)+l.n, 0):]
}
