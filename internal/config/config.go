// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/scoring"
)

// ErrInvalidConfig marks a configuration that failed Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Tournament selects the price history and round ranges to use.
	Tournament int `koanf:"tournament"`

	// DefaultFirstRound starts every window that does not name a round.
	DefaultFirstRound int `koanf:"default_first_round"`

	// LoglossBenchmark is the live logloss a user must beat from
	// BenchmarkCutoff onwards.
	LoglossBenchmark float64 `koanf:"logloss_benchmark"`
	BenchmarkCutoff  int     `koanf:"benchmark_cutoff"`

	// MinParticipation is the default consistency participation fraction.
	MinParticipation float64 `koanf:"min_participation_fraction"`

	// Ticker is the token the spot price is requested for.
	Ticker string `koanf:"ticker"`

	// LedgerPath points at the .csv or .xlsx ledger loaded on start.
	LedgerPath string `koanf:"ledger_path"`

	// LookupPath points at the YAML price, date and year-range table.
	LookupPath string `koanf:"lookup_path"`

	// PriceFeedURL enables the HTTP spot price feed. When empty the
	// lookup table's static spot price is used.
	PriceFeedURL       string  `koanf:"price_feed_url"`
	PriceFeedRPS       float64 `koanf:"price_feed_rps"`
	PriceFeedTimeoutMS int     `koanf:"price_feed_timeout_ms"`

	// MaxNtop caps |ntop| on ranked report requests.
	MaxNtop int `koanf:"max_ntop"`

	// MetricsIntervalMS sets how often ledger and system gauges refresh.
	MetricsIntervalMS int `koanf:"metrics_interval_ms"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Tournament:         report.DefaultTournament,
		DefaultFirstRound:  report.DefaultFirstRound,
		LoglossBenchmark:   scoring.LogLossBenchmark,
		BenchmarkCutoff:    scoring.DefaultCutoff,
		MinParticipation:   report.DefaultMinFraction,
		Ticker:             report.DefaultTicker,
		LedgerPath:         "ledger.csv",
		LookupPath:         "lookup.yaml",
		PriceFeedRPS:       2,
		PriceFeedTimeoutMS: 2000,
		MaxNtop:            1000,
		MetricsIntervalMS:  5000,
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Tournament <= 0:
		return fmt.Errorf("%w: tournament must be positive, got %d", ErrInvalidConfig, c.Tournament)
	case c.DefaultFirstRound <= 0:
		return fmt.Errorf("%w: default_first_round must be positive, got %d", ErrInvalidConfig, c.DefaultFirstRound)
	case !(c.LoglossBenchmark > 0) || math.IsInf(c.LoglossBenchmark, 0):
		return fmt.Errorf("%w: logloss_benchmark must be positive", ErrInvalidConfig)
	case !(c.MinParticipation >= 0 && c.MinParticipation <= 1):
		return fmt.Errorf("%w: min_participation_fraction must be in [0, 1], got %v", ErrInvalidConfig, c.MinParticipation)
	case c.Ticker == "":
		return fmt.Errorf("%w: ticker must not be empty", ErrInvalidConfig)
	case c.LedgerPath == "":
		return fmt.Errorf("%w: ledger_path must not be empty", ErrInvalidConfig)
	case c.PriceFeedURL != "" && c.PriceFeedRPS <= 0:
		return fmt.Errorf("%w: price_feed_rps must be positive", ErrInvalidConfig)
	case c.PriceFeedTimeoutMS < 0:
		return fmt.Errorf("%w: price_feed_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MaxNtop < 0:
		return fmt.Errorf("%w: max_ntop must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Engine returns the report engine settings.
func (c *Config) Engine() report.Config {
	return report.Config{
		Tournament:        c.Tournament,
		DefaultFirstRound: c.DefaultFirstRound,
		LoglossBenchmark:  c.LoglossBenchmark,
		BenchmarkCutoff:   c.BenchmarkCutoff,
		Ticker:            c.Ticker,
	}
}

// PriceFeedTimeout returns the per-request price feed timeout.
func (c *Config) PriceFeedTimeout() time.Duration {
	return time.Duration(c.PriceFeedTimeoutMS) * time.Millisecond
}

// MetricsInterval returns the gauge refresh interval.
func (c *Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalMS) * time.Millisecond
}
