package scoring_test

import (
	"math"
	"testing"

	scoring "github.com/okian/roundreport/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifier_Benchmark(t *testing.T) {
	Convey("Given a classifier with default options", t, func() {
		c := scoring.NewClassifier()

		Convey("When the round is before the cutoff", func() {
			Convey("Then ln(2) is the benchmark", func() {
				So(c.Benchmark(1), ShouldEqual, math.Ln2)
				So(c.Benchmark(101), ShouldEqual, math.Ln2)
			})
		})

		Convey("When the round is at or after the cutoff", func() {
			Convey("Then the logloss benchmark applies", func() {
				So(c.Benchmark(102), ShouldEqual, scoring.LogLossBenchmark)
				So(c.Benchmark(500), ShouldEqual, scoring.LogLossBenchmark)
			})
		})
	})

	Convey("Given a classifier with a custom benchmark", t, func() {
		c := scoring.NewClassifier(scoring.WithBenchmark(0.6925), scoring.WithCutoff(110))

		Convey("Then the cutoff and benchmark are honoured", func() {
			So(c.Benchmark(109), ShouldEqual, math.Ln2)
			So(c.Benchmark(110), ShouldEqual, 0.6925)
		})
	})

	Convey("Given invalid options", t, func() {
		c := scoring.NewClassifier(scoring.WithBenchmark(-1), scoring.WithCutoff(0))

		Convey("Then the defaults are kept", func() {
			So(c.Benchmark(101), ShouldEqual, math.Ln2)
			So(c.Benchmark(102), ShouldEqual, scoring.LogLossBenchmark)
		})
	})
}

func TestClassifier_IsWin(t *testing.T) {
	Convey("Given a classifier with a post-cutoff benchmark of 0.69", t, func() {
		c := scoring.NewClassifier(scoring.WithBenchmark(0.69))

		Convey("When live equals the benchmark exactly", func() {
			Convey("Then it never counts as a win", func() {
				So(c.IsWin(101, math.Ln2), ShouldBeFalse)
				So(c.IsWin(102, 0.69), ShouldBeFalse)
			})
		})

		Convey("When live sits between the two benchmarks", func() {
			live := 0.692

			Convey("Then the round decides the outcome", func() {
				So(c.IsWin(101, live), ShouldBeTrue)
				So(c.IsWin(102, live), ShouldBeFalse)
			})
		})

		Convey("When live is well below both benchmarks", func() {
			Convey("Then it wins in every round", func() {
				for _, round := range []int{1, 60, 101, 102, 300} {
					So(c.IsWin(round, 0.5), ShouldBeTrue)
				}
			})
		})
	})
}
