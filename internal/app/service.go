// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/roundreport/internal/adapters/export"
	"github.com/okian/roundreport/internal/adapters/repository"
	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/selector"
	"github.com/okian/roundreport/internal/domain/types"
	"github.com/okian/roundreport/pkg/logger"
	"github.com/okian/roundreport/pkg/metrics"
)

// ErrNotStarted is returned by report calls made before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the report system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool
	engine    *report.Engine

	// Configuration
	cfg     report.Config
	seed    model.Ledger
	spot    lookup.PriceOracle
	history lookup.PriceHistory
	dates   lookup.RoundDateResolver
	ranges  lookup.RoundRangeResolver

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngineConfig sets the report engine configuration.
func WithEngineConfig(cfg report.Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithStore uses an existing ledger store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLedger seeds the store the service creates on Start.
func WithLedger(l model.Ledger) Option {
	return func(s *Service) {
		s.seed = l
	}
}

// WithSpotPrice sets the current price source.
func WithSpotPrice(p lookup.PriceOracle) Option {
	return func(s *Service) {
		s.spot = p
	}
}

// WithPriceHistory sets the historical price source used by ten99.
func WithPriceHistory(h lookup.PriceHistory) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithRoundDates sets the round resolution date source used by ten99.
func WithRoundDates(d lookup.RoundDateResolver) Option {
	return func(s *Service) {
		s.dates = d
	}
}

// WithRoundRanges sets the year to round range source used by ten99.
func WithRoundRanges(r lookup.RoundRangeResolver) Option {
	return func(s *Service) {
		s.ranges = r
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: report.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Start creates the ledger store, when none was given, and the report engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting report service...")

	if s.store == nil {
		store, err := repository.NewLedgerStore(ctx, repository.WithRecords(s.seed))
		if err != nil {
			return fmt.Errorf("create ledger store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	engine, err := report.New(s.cfg, report.Dependencies{
		Ledger:  s.store,
		Spot:    s.spot,
		History: s.history,
		Dates:   s.dates,
		Ranges:  s.ranges,
	})
	if err != nil {
		s.closeStore()
		return fmt.Errorf("create report engine: %w", err)
	}
	s.engine = engine

	s.started = true
	st := s.store.Stats(ctx)
	s.logger.Info(ctx, "report service started",
		logger.Int("records", st.Records),
		logger.Int("users", st.Users),
		logger.Int("firstRound", st.FirstRound),
		logger.Int("latestRound", st.LatestRound),
		logger.Int("tournament", engine.Config().Tournament),
	)
	return nil
}

// Stop releases the store the service created.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping report service...")
	s.closeStore()
	s.engine = nil
	s.started = false
	s.logger.Info(context.Background(), "report service stopped")
}

func (s *Service) closeStore() {
	if !s.ownsStore || s.store == nil {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.store = nil
	s.ownsStore = false
}

// ReloadLedger swaps the ledger the reports read from.
func (s *Service) ReloadLedger(ctx context.Context, l model.Ledger) error {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return ErrNotStarted
	}
	if err := store.Replace(ctx, l); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	s.logger.Info(ctx, "ledger reloaded", logger.Int("records", len(l)))
	return nil
}

func (s *Service) current() (*report.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

// run executes one report, records its outcome and logs the report header.
func run[R any](ctx context.Context, s *Service, name string, table func(R) export.Table, f func(*report.Engine) (R, error)) (R, error) {
	var zero R
	e, err := s.current()
	if err != nil {
		return zero, err
	}
	start := time.Now()
	res, err := f(e)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		kind := errorKind(err)
		metrics.RecordReportError(name, kind)
		s.logger.Warn(ctx, "report failed",
			logger.String("report", name),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return zero, err
	}
	t := table(res)
	metrics.RecordReportGenerated(name, latency, len(t.Rows))
	s.logger.Info(ctx, t.Title,
		logger.String("report", name),
		logger.Int("rows", len(t.Rows)),
		logger.Float64("latencyMs", latency),
	)
	return res, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, lookup.ErrUnavailable):
		return "lookup"
	case errors.Is(err, report.ErrInvalidWindow),
		errors.Is(err, report.ErrInvalidUser),
		errors.Is(err, report.ErrInvalidFraction),
		errors.Is(err, selector.ErrInvalidLimit):
		return "bad_request"
	case errors.Is(err, report.ErrMissingDependency):
		return "config"
	default:
		return "internal"
	}
}

// Ten99 returns the unofficial 1099 report of user for year.
func (s *Service) Ten99(ctx context.Context, user string, year int) (report.Ten99Report, error) {
	return run(ctx, s, "ten99",
		export.Ten99Table,
		func(e *report.Engine) (report.Ten99Report, error) { return e.Ten99(ctx, user, year) })
}

// Consistency returns the consistency report over w.
func (s *Service) Consistency(ctx context.Context, w model.Window, minFraction float64) (report.ConsistencyReport, error) {
	return run(ctx, s, "consistency",
		export.ConsistencyTable,
		func(e *report.Engine) (report.ConsistencyReport, error) { return e.Consistency(ctx, w, minFraction) })
}

// Stake returns the staking earnings leaderboard over w.
func (s *Service) Stake(ctx context.Context, w model.Window, limit selector.Limit) (report.StakeReport, error) {
	return run(ctx, s, "stake",
		export.StakeTable,
		func(e *report.Engine) (report.StakeReport, error) { return e.Stake(ctx, w, limit) })
}

// Earn returns the total earnings leaderboard over w.
func (s *Service) Earn(ctx context.Context, w model.Window, limit selector.Limit) (report.EarnReport, error) {
	return run(ctx, s, "earn",
		export.EarnTable,
		func(e *report.Engine) (report.EarnReport, error) { return e.Earn(ctx, w, limit) })
}

// Burn returns the burn leaderboard over w.
func (s *Service) Burn(ctx context.Context, w model.Window, limit selector.Limit) (report.BurnReport, error) {
	return run(ctx, s, "burn",
		export.BurnTable,
		func(e *report.Engine) (report.BurnReport, error) { return e.Burn(ctx, w, limit) })
}

// Participation returns the participation leaderboard over w.
func (s *Service) Participation(ctx context.Context, w model.Window, limit selector.Limit) (report.ParticipationReport, error) {
	return run(ctx, s, "participation",
		export.ParticipationTable,
		func(e *report.Engine) (report.ParticipationReport, error) { return e.Participation(ctx, w, limit) })
}

// BigStaker returns the total staked leaderboard over w.
func (s *Service) BigStaker(ctx context.Context, w model.Window, limit selector.Limit) (report.BigStakerReport, error) {
	return run(ctx, s, "big_staker",
		export.BigStakerTable,
		func(e *report.Engine) (report.BigStakerReport, error) { return e.BigStaker(ctx, w, limit) })
}

// NewUsers returns new user counts per round over w.
func (s *Service) NewUsers(ctx context.Context, w model.Window) (report.NewUsersReport, error) {
	return run(ctx, s, "new_users",
		export.NewUsersTable,
		func(e *report.Engine) (report.NewUsersReport, error) { return e.NewUsers(ctx, w) })
}

// UserParticipation returns the distinct rounds user entered inside w.
func (s *Service) UserParticipation(ctx context.Context, user string, w model.Window) ([]int, error) {
	return run(ctx, s, "user_participation",
		func(r []int) export.Table { return export.UserRoundsTable(user, r) },
		func(e *report.Engine) ([]int, error) { return e.UserParticipation(ctx, user, w) })
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.ServiceStats{Started: s.started, Tournament: s.cfg.Tournament}
	if s.started {
		st := s.store.Stats(context.Background())
		stats.LedgerStats = &types.LedgerStats{
			Records:           st.Records,
			Users:             st.Users,
			FirstRound:        st.FirstRound,
			LatestRound:       st.LatestRound,
			DefaultFirstRound: s.engine.Config().DefaultFirstRound,
		}
	}
	return stats
}
