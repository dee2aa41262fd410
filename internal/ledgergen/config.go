// Package ledgergen builds synthetic tournament ledgers and matching lookup
// tables for local runs and load tests.
package ledgergen

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig marks a generator config that cannot be used.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config holds configuration for the generator.
type Config struct {
	Users      int       // number of distinct users
	FirstRound int       // first generated round
	Rounds     int       // number of consecutive rounds
	Tournament int       // tournament id written to the lookup table
	Seed       uint64    // seed for the random source; equal seeds give equal output
	StartDate  time.Time // resolution date of FirstRound; later rounds follow weekly
	LedgerPath string    // .csv or .xlsx output
	LookupPath string    // optional YAML lookup table output
}

// DefaultConfig returns a small ledger starting at round 1 in 2017.
func DefaultConfig() Config {
	return Config{
		Users:      200,
		FirstRound: 1,
		Rounds:     120,
		Tournament: 1,
		Seed:       1,
		StartDate:  time.Date(2016, 12, 7, 0, 0, 0, 0, time.UTC),
		LedgerPath: "ledger.csv",
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Users <= 0:
		return fmt.Errorf("%w: users must be positive, got %d", ErrInvalidConfig, c.Users)
	case c.FirstRound <= 0:
		return fmt.Errorf("%w: first round must be positive, got %d", ErrInvalidConfig, c.FirstRound)
	case c.Rounds <= 0:
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfig, c.Rounds)
	case c.Tournament <= 0:
		return fmt.Errorf("%w: tournament must be positive, got %d", ErrInvalidConfig, c.Tournament)
	case c.StartDate.IsZero():
		return fmt.Errorf("%w: start date must be set", ErrInvalidConfig)
	}
	return nil
}

// LastRound returns the final generated round.
func (c Config) LastRound() int { return c.FirstRound + c.Rounds - 1 }
