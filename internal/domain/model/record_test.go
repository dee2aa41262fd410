package model_test

import (
	"testing"

	model "github.com/okian/roundreport/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestWindow(t *testing.T) {
	convey.Convey("Given round windows", t, func() {
		convey.Convey("When the window is closed", func() {
			w := model.Window{From: 61, To: 63}

			convey.Convey("Then both bounds are inclusive", func() {
				convey.So(w.Contains(60), convey.ShouldBeFalse)
				convey.So(w.Contains(61), convey.ShouldBeTrue)
				convey.So(w.Contains(63), convey.ShouldBeTrue)
				convey.So(w.Contains(64), convey.ShouldBeFalse)
				convey.So(w.Open(), convey.ShouldBeFalse)
				convey.So(w.Valid(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the window is open-ended", func() {
			w := model.Window{From: 61, To: model.Latest}

			convey.Convey("Then every later round is included", func() {
				convey.So(w.Open(), convey.ShouldBeTrue)
				convey.So(w.Contains(10_000), convey.ShouldBeTrue)
				convey.So(w.Contains(60), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the bounds are reversed", func() {
			w := model.Window{From: 90, To: 80}

			convey.Convey("Then it is invalid", func() {
				convey.So(w.Valid(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestLedger(t *testing.T) {
	convey.Convey("Given a ledger with duplicate rows", t, func() {
		ledger := model.Ledger{
			{Round: 44, User: "alice", Live: model.Float(0.69)},
			{Round: 44, User: "alice", Live: model.Float(0.70)},
			{Round: 45, User: "bob"},
			{Round: 47, User: "alice"},
		}

		convey.Convey("When slicing a window", func() {
			got := ledger.Slice(model.Window{From: 45, To: model.Latest})

			convey.Convey("Then only rows inside the window remain in order", func() {
				convey.So(len(got), convey.ShouldEqual, 2)
				convey.So(got[0].User, convey.ShouldEqual, "bob")
				convey.So(got[1].Round, convey.ShouldEqual, 47)
			})
		})

		convey.Convey("When selecting a user", func() {
			got := ledger.ForUser("alice")

			convey.Convey("Then duplicates are kept", func() {
				convey.So(len(got), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When selecting an absent user", func() {
			got := ledger.ForUser("carol")

			convey.Convey("Then the result is empty but not nil", func() {
				convey.So(got, convey.ShouldNotBeNil)
				convey.So(got, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When asking for the round span", func() {
			first, last, ok := ledger.Rounds()

			convey.Convey("Then min and max are returned", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(first, convey.ShouldEqual, 44)
				convey.So(last, convey.ShouldEqual, 47)
			})
		})

		convey.Convey("When the ledger is empty", func() {
			_, _, ok := model.Ledger{}.Rounds()

			convey.Convey("Then no span is reported", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When checking live scores", func() {
			convey.Convey("Then nil live means no submission", func() {
				convey.So(ledger[0].HasLive(), convey.ShouldBeTrue)
				convey.So(ledger[2].HasLive(), convey.ShouldBeFalse)
			})
		})
	})
}
