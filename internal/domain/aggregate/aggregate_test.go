package aggregate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	aggregate "github.com/okian/roundreport/internal/domain/aggregate"
	"github.com/okian/roundreport/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixture() []model.Record {
	return []model.Record{
		{Round: 44, User: "bob", USDMain: 1, NMRBurn: 2, Stake: 10},
		{Round: 44, User: "alice", USDMain: 5, Live: model.Float(0.60)},
		{Round: 44, User: "alice", USDMain: 5, Live: model.Float(0.70)},
		{Round: 46, User: "alice", USDMain: 1, NMRBurn: 1, Stake: 3},
		{Round: 45, User: "bob", USDStake: 4, Stake: 2.5},
	}
}

func TestSum(t *testing.T) {
	Convey("Given ledger records for two users", t, func() {
		recs := fixture()

		Convey("When summing columns by user", func() {
			got := aggregate.Sum(recs, aggregate.ByUser, aggregate.USDMain, aggregate.NMRBurn, aggregate.Stake)

			Convey("Then groups are ordered by user with sums in column order", func() {
				want := []aggregate.Group[string]{
					{Key: "alice", Values: []float64{11, 1, 3}},
					{Key: "bob", Values: []float64{1, 2, 12.5}},
				}
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})
		})

		Convey("When summing by round", func() {
			got := aggregate.Sum(recs, aggregate.ByRound, aggregate.USDStake)

			Convey("Then groups are ordered by round", func() {
				So(len(got), ShouldEqual, 3)
				So(got[0].Key, ShouldEqual, 44)
				So(got[1].Key, ShouldEqual, 45)
				So(got[1].Values[0], ShouldEqual, 4.0)
				So(got[2].Key, ShouldEqual, 46)
			})
		})

		Convey("When there are no records", func() {
			got := aggregate.Sum(nil, aggregate.ByUser, aggregate.USDMain)

			Convey("Then the result is empty", func() {
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestCountDistinct(t *testing.T) {
	Convey("Given duplicate rows for alice in round 44", t, func() {
		recs := fixture()

		Convey("When counting distinct rounds per user", func() {
			got := aggregate.CountDistinct(recs, aggregate.ByUser, aggregate.ByRound)

			Convey("Then round 44 is counted once", func() {
				want := []aggregate.Count[string]{{Key: "alice", N: 2}, {Key: "bob", N: 2}}
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})
		})
	})
}

func TestExtent(t *testing.T) {
	Convey("Given records spread across rounds", t, func() {
		recs := fixture()

		Convey("When taking the round extent per user", func() {
			got := aggregate.Extent(recs, aggregate.ByUser, aggregate.ByRound)

			Convey("Then first and last rounds are reported", func() {
				want := []aggregate.Span[string]{
					{Key: "alice", Min: 44, Max: 46},
					{Key: "bob", Min: 44, Max: 45},
				}
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})
		})
	})
}

func TestDedupeRoundUser(t *testing.T) {
	Convey("Given two alice rows in round 44 with different live scores", t, func() {
		recs := fixture()

		Convey("When deduplicating", func() {
			got := aggregate.DedupeRoundUser(recs)

			Convey("Then the first row wins", func() {
				So(len(got), ShouldEqual, 4)
				So(*got[1].Live, ShouldEqual, 0.60)
				So(got[2].Round, ShouldEqual, 46)
			})
		})
	})
}

func TestDistinctRounds(t *testing.T) {
	Convey("Given records out of round order", t, func() {
		recs := fixture()

		Convey("When listing distinct rounds", func() {
			got := aggregate.DistinctRounds(recs)

			Convey("Then first-seen order is kept", func() {
				So(got, ShouldResemble, []int{44, 46, 45})
			})
		})
	})
}
