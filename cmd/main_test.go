package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/roundreport/internal/adapters/repository"
	"github.com/okian/roundreport/internal/config"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/selector"
	"github.com/okian/roundreport/pkg/logger"
)

const testLedger = `round,user,usd_stake,nmr_stake,nmr_burn
61,alice,5,1,0
62,bob,10,0,2
`

const testLookup = `
spot:
  nmr: 2
tournaments:
  1:
    years:
      2017: [50, 70]
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New(context.Background())
	cfg.Addr = "127.0.0.1:0"
	cfg.LedgerPath = filepath.Join(dir, "ledger.csv")
	cfg.LookupPath = filepath.Join(dir, "lookup.yaml")
	if err := os.WriteFile(cfg.LedgerPath, []byte(testLedger), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.LookupPath, []byte(testLookup), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given a config pointing at a ledger and lookup table", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		store, err := repository.NewLedgerStore(ctx)
		convey.So(err, convey.ShouldBeNil)
		defer store.Close()

		convey.So(loadLedger(ctx, store, cfg.LedgerPath, logger.Nop()), convey.ShouldBeNil)

		convey.Convey("When the service is built from the table", func() {
			svc, err := buildService(ctx, cfg, store, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the table spot price values the reports", func() {
				r, err := svc.Stake(ctx, model.Window{}, selector.All())
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.Price, convey.ShouldEqual, 2.0)
				convey.So(r.Rows, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When the lookup table is missing", func() {
			cfg.LookupPath = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := buildService(ctx, cfg, store, logger.Nop())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a price feed URL is configured", func() {
			cfg.PriceFeedURL = "http://127.0.0.1:1"
			svc, err := buildService(ctx, cfg, store, logger.Nop())

			convey.Convey("Then the service is still built", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestLoadLedger(t *testing.T) {
	convey.Convey("Given a store", t, func() {
		ctx := context.Background()
		store, err := repository.NewLedgerStore(ctx)
		convey.So(err, convey.ShouldBeNil)
		defer store.Close()

		convey.Convey("A missing ledger file is an error", func() {
			err := loadLedger(ctx, store, filepath.Join(t.TempDir(), "nope.csv"), logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(store.Count(ctx), convey.ShouldEqual, 0)
		})

		convey.Convey("An unsupported extension is an error", func() {
			err := loadLedger(ctx, store, "ledger.parquet", logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestReloadLedger(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		store, err := repository.NewLedgerStore(ctx)
		convey.So(err, convey.ShouldBeNil)
		defer store.Close()
		convey.So(loadLedger(ctx, store, cfg.LedgerPath, logger.Nop()), convey.ShouldBeNil)

		svc, err := buildService(ctx, cfg, store, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When the ledger file changes and is reloaded", func() {
			grown := testLedger + "63,carol,0,0,1\n"
			convey.So(os.WriteFile(cfg.LedgerPath, []byte(grown), 0o600), convey.ShouldBeNil)
			convey.So(reloadLedger(ctx, svc, cfg.LedgerPath), convey.ShouldBeNil)

			convey.Convey("Then the service reports from the new ledger", func() {
				convey.So(store.Count(ctx), convey.ShouldEqual, 3)
				r, err := svc.Burn(ctx, model.Window{}, selector.All())
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.Rows, convey.ShouldHaveLength, 3)
				convey.So(r.Span.Last, convey.ShouldEqual, 63)
			})
		})

		convey.Convey("When the reloaded file is missing", func() {
			err := reloadLedger(ctx, svc, filepath.Join(t.TempDir(), "gone.csv"))

			convey.Convey("Then the current ledger is kept", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(store.Count(ctx), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := testConfig(t)

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			err := run(ctx, cfg, logger.Nop())

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the ledger cannot be loaded", func() {
			cfg.LedgerPath = filepath.Join(t.TempDir(), "missing.csv")
			err := run(context.Background(), cfg, logger.Nop())

			convey.Convey("Then run fails before serving", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
