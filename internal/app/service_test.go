package service_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/roundreport/internal/app"
	"github.com/okian/roundreport/internal/adapters/repository"
	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/selector"
	"github.com/okian/roundreport/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fixedPrice float64

func (p fixedPrice) Spot(context.Context, string) (float64, error) { return float64(p), nil }

type brokenPrice struct{}

func (brokenPrice) Spot(context.Context, string) (float64, error) {
	return 0, errors.New("feed down")
}

func ledger() model.Ledger {
	return model.Ledger{
		{Round: 61, User: "alice", Live: model.Float(0.60), USDStake: 5, NMRStake: 1},
		{Round: 61, User: "bob", Live: model.Float(0.70), USDStake: 10},
		{Round: 62, User: "bob", Live: model.Float(0.68), NMRBurn: 2},
		{Round: 63, User: "carol", NMRBurn: 1},
	}
}

func started(opts ...service.Option) (*service.Service, context.Context) {
	ctx := context.Background()
	svc := service.New(append([]service.Option{service.WithLedger(ledger()), service.WithSpotPrice(fixedPrice(2))}, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, ctx
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats().Tournament, ShouldEqual, 1)
			So(svc.GetStats().LedgerStats, ShouldBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc, _ := started()
		defer svc.Stop()

		Convey("Then it should be marked as started", func() {
			stats := svc.GetStats()
			So(stats.Started, ShouldBeTrue)
			So(stats.LedgerStats, ShouldNotBeNil)
			So(stats.Records, ShouldEqual, 4)
			So(stats.Users, ShouldEqual, 3)
			So(stats.LatestRound, ShouldEqual, 63)
		})

		Convey("And starting twice is harmless", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := started()

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats().Started, ShouldBeFalse)
				So(svc.GetStats().LedgerStats, ShouldBeNil)
			})

			Convey("And reports are refused", func() {
				_, err := svc.Burn(ctx, model.Window{}, selector.All())
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Reports(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := started()
		defer svc.Stop()

		Convey("Stake is valued at the spot price", func() {
			r, err := svc.Stake(ctx, model.Window{}, selector.All())
			So(err, ShouldBeNil)
			So(r.Price, ShouldEqual, 2.0)
			So(r.Rows[0].User, ShouldEqual, "alice")
			So(r.Rows[0].ProfitUSD, ShouldEqual, 7)
			So(r.Rows[1].User, ShouldEqual, "bob")
			So(r.Rows[1].ProfitUSD, ShouldEqual, 6)
		})

		Convey("Burn ranks the biggest burner first", func() {
			r, err := svc.Burn(ctx, model.Window{}, selector.N(1))
			So(err, ShouldBeNil)
			So(r.Rows, ShouldHaveLength, 1)
			So(r.Rows[0].User, ShouldEqual, "bob")
		})

		Convey("User participation lists rounds in ledger order", func() {
			rounds, err := svc.UserParticipation(ctx, "bob", model.Window{})
			So(err, ShouldBeNil)
			So(rounds, ShouldResemble, []int{61, 62})
		})

		Convey("Consistency counts wins among live rounds", func() {
			r, err := svc.Consistency(ctx, model.Window{}, 0)
			So(err, ShouldBeNil)
			So(r.Rows, ShouldNotBeEmpty)
		})

		Convey("New users span the slice", func() {
			r, err := svc.NewUsers(ctx, model.Window{})
			So(err, ShouldBeNil)
			So(r.Rows, ShouldHaveLength, 3)
		})

		Convey("Ten99 without lookup tables is a configuration error", func() {
			_, err := svc.Ten99(ctx, "bob", 2017)
			So(err, ShouldNotBeNil)
		})

		Convey("Reloading the ledger changes what reports see", func() {
			So(svc.ReloadLedger(ctx, model.Ledger{{Round: 70, User: "dave", NMRBurn: 4}}), ShouldBeNil)
			r, err := svc.Burn(ctx, model.Window{}, selector.All())
			So(err, ShouldBeNil)
			So(r.Rows, ShouldHaveLength, 1)
			So(r.Rows[0].User, ShouldEqual, "dave")
		})
	})
}

func TestService_Errors(t *testing.T) {
	Convey("Given a service whose price feed is down", t, func() {
		svc, ctx := started(service.WithSpotPrice(brokenPrice{}))
		defer svc.Stop()

		Convey("Price dependent reports fail as lookup unavailable", func() {
			_, err := svc.Earn(ctx, model.Window{}, selector.All())
			So(errors.Is(err, lookup.ErrUnavailable), ShouldBeTrue)
		})

		Convey("Reports without prices still work", func() {
			_, err := svc.Participation(ctx, model.Window{}, selector.All())
			So(err, ShouldBeNil)
		})
	})

	Convey("Given a service over an external store", t, func() {
		ctx := context.Background()
		store, err := repository.NewLedgerStore(ctx, repository.WithRecords(ledger()))
		So(err, ShouldBeNil)
		defer store.Close()

		svc := service.New(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		svc.Stop()

		Convey("Stopping the service leaves the store open", func() {
			So(store.Count(ctx), ShouldEqual, 4)
		})
	})

	Convey("Given an unstarted service over an external store", t, func() {
		ctx := context.Background()
		store, err := repository.NewLedgerStore(ctx)
		So(err, ShouldBeNil)
		defer store.Close()

		svc := service.New(service.WithStore(store))

		Convey("Reloading the ledger fills the store", func() {
			reload := func() {
				So(svc.ReloadLedger(ctx, model.Ledger{{Round: 70, User: "dave", NMRBurn: 4}}), ShouldBeNil)
			}
			So(reload, ShouldNotPanic)
			So(store.Count(ctx), ShouldEqual, 1)
		})
	})

	Convey("Given a service with neither store nor ledger", t, func() {
		svc := service.New()

		Convey("Reloading reports that it is not started", func() {
			err := svc.ReloadLedger(context.Background(), model.Ledger{{Round: 70, User: "dave"}})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}
