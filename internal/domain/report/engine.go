// Package report turns ledger slices into tax, consistency, leaderboard and
// participation reports.
//
// Every operation is a pure function of the ledger slice, its parameters and
// the lookups it consults during the call. The engine keeps no state between
// calls and never prints; callers decide how to present a result.
package report

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/scoring"
)

// Default engine configuration.
const (
	DefaultTournament      = 1
	DefaultFirstRound      = 61
	DefaultTicker          = "nmr"
	DefaultPriceFreeBefore = 58
	DefaultMinFraction     = 0.8
)

// LedgerSource returns the records whose round falls inside a window.
type LedgerSource interface {
	Slice(ctx context.Context, w model.Window) (model.Ledger, error)
}

// Config holds the tunable constants shared by every report.
type Config struct {
	// Tournament selects the lookup tables (price history, round ranges).
	Tournament int
	// DefaultFirstRound is used when a window has no start round.
	DefaultFirstRound int
	// LoglossBenchmark is the win threshold from BenchmarkCutoff onwards.
	LoglossBenchmark float64
	// BenchmarkCutoff is the first round judged against LoglossBenchmark.
	BenchmarkCutoff int
	// PriceFreeBefore is the first round with a tradable token; earlier
	// rounds are priced at zero.
	PriceFreeBefore int
	// Ticker is the token whose spot price values nmr columns.
	Ticker string
}

// DefaultConfig returns the configuration of tournament 1.
func DefaultConfig() Config {
	return Config{
		Tournament:        DefaultTournament,
		DefaultFirstRound: DefaultFirstRound,
		LoglossBenchmark:  scoring.LogLossBenchmark,
		BenchmarkCutoff:   scoring.DefaultCutoff,
		PriceFreeBefore:   DefaultPriceFreeBefore,
		Ticker:            DefaultTicker,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Tournament == 0 {
		c.Tournament = d.Tournament
	}
	if c.DefaultFirstRound == 0 {
		c.DefaultFirstRound = d.DefaultFirstRound
	}
	if c.LoglossBenchmark == 0 {
		c.LoglossBenchmark = d.LoglossBenchmark
	}
	if c.BenchmarkCutoff == 0 {
		c.BenchmarkCutoff = d.BenchmarkCutoff
	}
	if c.PriceFreeBefore == 0 {
		c.PriceFreeBefore = d.PriceFreeBefore
	}
	if c.Ticker == "" {
		c.Ticker = d.Ticker
	}
	return c
}

// Dependencies bundles the collaborators an Engine reads from. Only Ledger
// is required up front; each lookup is checked by the reports that use it.
type Dependencies struct {
	Ledger  LedgerSource
	Spot    lookup.PriceOracle
	History lookup.PriceHistory
	Dates   lookup.RoundDateResolver
	Ranges  lookup.RoundRangeResolver
}

// Engine is the report facade.
type Engine struct {
	cfg        Config
	deps       Dependencies
	classifier *scoring.Classifier
}

// New builds an Engine. Zero config fields take their defaults.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if deps.Ledger == nil {
		return nil, fmt.Errorf("%w: ledger source", ErrMissingDependency)
	}
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:  cfg,
		deps: deps,
		classifier: scoring.NewClassifier(
			scoring.WithBenchmark(cfg.LoglossBenchmark),
			scoring.WithCutoff(cfg.BenchmarkCutoff),
		),
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Span is the first and last round present in the slice a report used.
type Span struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

func spanOf(l model.Ledger) Span {
	first, last, _ := l.Rounds()
	return Span{First: first, Last: last}
}

// window applies the default start round and checks the bounds.
func (e *Engine) window(w model.Window) (model.Window, error) {
	if w.From == 0 {
		w.From = e.cfg.DefaultFirstRound
	}
	if w.From < 0 || w.To < 0 || !w.Valid() {
		return w, fmt.Errorf("%w: R%d - R%d", ErrInvalidWindow, w.From, w.To)
	}
	return w, nil
}

// slice resolves w and reads the matching ledger records.
func (e *Engine) slice(ctx context.Context, w model.Window) (model.Ledger, error) {
	w, err := e.window(w)
	if err != nil {
		return nil, err
	}
	l, err := e.deps.Ledger.Slice(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("slice ledger R%d - R%d: %w", w.From, w.To, err)
	}
	return l, nil
}

// spot fetches the current token price once for a report.
func (e *Engine) spot(ctx context.Context) (float64, error) {
	if e.deps.Spot == nil {
		return 0, fmt.Errorf("%w: price oracle", ErrMissingDependency)
	}
	p, err := e.deps.Spot.Spot(ctx, e.cfg.Ticker)
	if err != nil {
		return 0, lookup.Wrap(lookup.ServiceSpot, e.cfg.Ticker, err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, lookup.Missing(lookup.ServiceSpot, e.cfg.Ticker)
	}
	return p, nil
}

func validUser(user string) error {
	if user == "" {
		return fmt.Errorf("%w: empty user", ErrInvalidUser)
	}
	return nil
}
