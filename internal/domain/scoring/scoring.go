// Package scoring decides whether a live score counts as a win.
package scoring

import (
	"math"
)

// Benchmark defaults.
const (
	// DefaultCutoff is the first round judged against the post-cutoff benchmark.
	DefaultCutoff = 102
	// LogLossBenchmark is the live logloss a submission must beat from the
	// cutoff round onwards.
	LogLossBenchmark = 0.693
)

// PreCutoffBenchmark is the win threshold before the cutoff round.
var PreCutoffBenchmark = math.Ln2

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithBenchmark sets the benchmark used from the cutoff round onwards.
func WithBenchmark(benchmark float64) Option {
	return func(c *Classifier) {
		if benchmark > 0 {
			c.benchmark = benchmark
		}
	}
}

// WithCutoff sets the round at which the benchmark switches.
func WithCutoff(round int) Option {
	return func(c *Classifier) {
		if round > 0 {
			c.cutoff = round
		}
	}
}

// Classifier holds the round-dependent win threshold.
type Classifier struct {
	benchmark float64
	cutoff    int
}

// NewClassifier creates a classifier with configuration options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		benchmark: LogLossBenchmark,
		cutoff:    DefaultCutoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Benchmark returns the threshold that applies to round.
func (c *Classifier) Benchmark(round int) float64 {
	if round < c.cutoff {
		return PreCutoffBenchmark
	}
	return c.benchmark
}

// IsWin reports whether live beats the benchmark for round. Ties lose.
func (c *Classifier) IsWin(round int, live float64) bool {
	return live < c.Benchmark(round)
}
