package repository

import (
	"time"

	"github.com/okian/roundreport/internal/domain/model"
)

// Option applies a configuration option to the LedgerStore.
type Option func(*LedgerStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *LedgerStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithRecords seeds the store with an initial ledger.
func WithRecords(l model.Ledger) Option {
	return func(s *LedgerStore) {
		s.seed = l
	}
}
