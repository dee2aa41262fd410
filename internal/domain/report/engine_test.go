package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/selector"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given engine dependencies", t, func() {
		Convey("When the ledger source is missing", func() {
			_, err := report.New(report.Config{}, report.Dependencies{})

			Convey("Then construction fails", func() {
				So(errors.Is(err, report.ErrMissingDependency), ShouldBeTrue)
			})
		})

		Convey("When the config is zero", func() {
			e, err := report.New(report.Config{}, report.Dependencies{Ledger: &ledgerSource{}})

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(e.Config(), ShouldResemble, report.DefaultConfig())
			})
		})

		Convey("When the config overrides a field", func() {
			e, err := report.New(report.Config{Tournament: 2, Ticker: "eth"}, report.Dependencies{Ledger: &ledgerSource{}})

			Convey("Then the override is kept and the rest defaulted", func() {
				So(err, ShouldBeNil)
				So(e.Config().Tournament, ShouldEqual, 2)
				So(e.Config().Ticker, ShouldEqual, "eth")
				So(e.Config().DefaultFirstRound, ShouldEqual, report.DefaultFirstRound)
			})
		})
	})
}

func TestWindows(t *testing.T) {
	Convey("Given an engine over an empty ledger", t, func() {
		src := &ledgerSource{}
		e, err := report.New(report.Config{}, report.Dependencies{Ledger: src})
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When the window has no start round", func() {
			_, err := e.Burn(ctx, model.Window{}, selector.All())

			Convey("Then the default first round is used", func() {
				So(err, ShouldBeNil)
				So(src.last, ShouldResemble, model.Window{From: report.DefaultFirstRound, To: model.Latest})
			})
		})

		Convey("When round1 is after round2", func() {
			_, err := e.Burn(ctx, model.Window{From: 70, To: 65}, selector.All())

			Convey("Then the window is rejected", func() {
				So(errors.Is(err, report.ErrInvalidWindow), ShouldBeTrue)
			})
		})

		Convey("When a round is negative", func() {
			_, err := e.Participation(ctx, model.Window{From: -3, To: 10}, selector.All())

			Convey("Then the window is rejected", func() {
				So(errors.Is(err, report.ErrInvalidWindow), ShouldBeTrue)
			})
		})

		Convey("When the window holds no records", func() {
			res, err := e.Burn(ctx, model.Window{From: 61, To: 70}, selector.All())

			Convey("Then the result is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(res.Rows, ShouldBeEmpty)
			})
		})
	})
}

func TestLedgerFailure(t *testing.T) {
	Convey("Given a ledger source that fails", t, func() {
		e, err := report.New(report.Config{}, report.Dependencies{Ledger: &ledgerSource{err: errBoom}})
		So(err, ShouldBeNil)

		Convey("When any report runs", func() {
			_, err := e.NewUsers(context.Background(), model.Window{From: 61})

			Convey("Then the failure reaches the caller", func() {
				So(errors.Is(err, errBoom), ShouldBeTrue)
			})
		})
	})
}

func TestSpotFailure(t *testing.T) {
	Convey("Given a ledger and a price oracle", t, func() {
		src := &ledgerSource{ledger: model.Ledger{{Round: 61, User: "alice", USDStake: 1}}}
		ctx := context.Background()

		Convey("When the oracle fails", func() {
			e, _ := report.New(report.Config{}, report.Dependencies{Ledger: src, Spot: &spotPrice{err: errBoom}})
			_, err := e.Stake(ctx, model.Window{}, selector.All())

			Convey("Then a lookup unavailable error carries the cause", func() {
				So(errors.Is(err, lookup.ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err, errBoom), ShouldBeTrue)
			})
		})

		Convey("When no oracle is configured", func() {
			e, _ := report.New(report.Config{}, report.Dependencies{Ledger: src})
			_, err := e.Earn(ctx, model.Window{}, selector.All())

			Convey("Then the missing dependency is reported", func() {
				So(errors.Is(err, report.ErrMissingDependency), ShouldBeTrue)
			})
		})
	})
}
