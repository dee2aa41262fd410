package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/roundreport/internal/adapters/http/api"
	"github.com/okian/roundreport/internal/adapters/ledgerfile"
	"github.com/okian/roundreport/internal/adapters/lookuptable"
	"github.com/okian/roundreport/internal/adapters/pricefeed"
	"github.com/okian/roundreport/internal/adapters/repository"
	app "github.com/okian/roundreport/internal/app"
	"github.com/okian/roundreport/internal/config"
	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/pkg/logger"
	"github.com/okian/roundreport/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	priceFeedBurst            = 4
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithOptions(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "roundreport exited", logger.Error(err))
		os.Exit(1)
	}
}

// run loads the ledger and lookups, serves HTTP until ctx is cancelled and
// then shuts down.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := repository.NewLedgerStore(ctx, repository.WithMetricsUpdateInterval(cfg.MetricsInterval()))
	if err != nil {
		return fmt.Errorf("create ledger store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := loadLedger(ctx, store, cfg.LedgerPath, log); err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg, store, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go watchReload(ctx, svc, cfg.LedgerPath, log)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc, svc,
		api.WithMaxNtop(cfg.MaxNtop),
		api.WithMinParticipation(cfg.MinParticipation),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildService wires the lookups named by cfg around store.
func buildService(ctx context.Context, cfg *config.Config, store repository.Store, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithEngineConfig(cfg.Engine()),
		app.WithStore(store),
	}

	var spot lookup.PriceOracle
	if cfg.LookupPath != "" {
		tbl, err := lookuptable.Load(cfg.LookupPath)
		if err != nil {
			return nil, fmt.Errorf("load lookup table: %w", err)
		}
		tour := tbl.Tournament(cfg.Tournament)
		spot = tbl
		opts = append(opts,
			app.WithPriceHistory(tour),
			app.WithRoundDates(tour),
			app.WithRoundRanges(tbl),
		)
		log.Info(ctx, "lookup table loaded", logger.String("path", cfg.LookupPath), logger.Int("tournament", cfg.Tournament))
	}

	if cfg.PriceFeedURL != "" {
		feed, err := pricefeed.New(cfg.PriceFeedURL,
			pricefeed.WithTimeout(cfg.PriceFeedTimeout()),
			pricefeed.WithRateLimit(cfg.PriceFeedRPS, priceFeedBurst),
		)
		if err != nil {
			return nil, fmt.Errorf("create price feed: %w", err)
		}
		spot = feed
		log.Info(ctx, "using HTTP price feed", logger.String("url", cfg.PriceFeedURL))
	}
	if spot != nil {
		opts = append(opts, app.WithSpotPrice(spot))
	}

	return app.New(opts...), nil
}

// loadLedger reads path into store.
func loadLedger(ctx context.Context, store repository.Store, path string, log logger.Logger) error {
	start := time.Now()
	l, err := ledgerfile.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := store.Replace(ctx, l); err != nil {
		return fmt.Errorf("store ledger: %w", err)
	}
	st := store.Stats(ctx)
	log.Info(ctx, "ledger loaded",
		logger.String("path", path),
		logger.Int("records", st.Records),
		logger.Int("users", st.Users),
		logger.Int("latestRound", st.LatestRound),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// ledgerReloader swaps the ledger a running service reports from.
type ledgerReloader interface {
	ReloadLedger(ctx context.Context, l model.Ledger) error
}

// reloadLedger reads path and hands it to svc.
func reloadLedger(ctx context.Context, svc ledgerReloader, path string) error {
	l, err := ledgerfile.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	return svc.ReloadLedger(ctx, l)
}

// watchReload reloads the ledger file on SIGHUP. A failed reload keeps the
// current ledger.
func watchReload(ctx context.Context, svc ledgerReloader, path string, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reloadLedger(ctx, svc, path); err != nil {
				log.Error(ctx, "ledger reload failed", logger.String("path", path), logger.Error(err))
			}
		}
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
