package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/pkg/metrics"
)

// Snapshot-based, in-memory Store implementation.
//
// Records are kept sorted by round. The sort is stable, so rows of the same
// round stay in the order they were written. Readers load the current
// snapshot without locking; writers build a new one under mu and publish it.

// Snapshot is an immutable view of the ledger.
type Snapshot struct {
	Records model.Ledger
	Users   int
}

// LedgerStore is the default Store.
type LedgerStore struct {
	mu   sync.Mutex // serialises writers
	snap atomic.Pointer[Snapshot]
	seed model.Ledger

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	closed                atomic.Bool
	wg                    sync.WaitGroup
}

// NewLedgerStore constructs a ledger store with configuration options.
func NewLedgerStore(ctx context.Context, opts ...Option) (*LedgerStore, error) {
	s := &LedgerStore{
		metricsUpdateInterval: 10 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.snap.Store(&Snapshot{Records: model.Ledger{}})
	if len(s.seed) > 0 {
		if err := s.Replace(ctx, s.seed); err != nil {
			return nil, err
		}
		s.seed = nil
	}

	s.startMetricsUpdater(ctx)
	return s, nil
}

// Close stops the background metrics updater.
func (s *LedgerStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Snapshot returns the current immutable view.
func (s *LedgerStore) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Slice implements Store.Slice in O(log n + k).
func (s *LedgerStore) Slice(ctx context.Context, w model.Window) (model.Ledger, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.From < 0 || w.To < 0 || !w.Valid() {
		metrics.RecordErrorByComponent("repository", "invalid_window")
		return nil, fmt.Errorf("%w: R%d - R%d", ErrInvalidWindow, w.From, w.To)
	}

	recs := s.snap.Load().Records
	lo := sort.Search(len(recs), func(i int) bool { return recs[i].Round >= w.From })
	hi := len(recs)
	if !w.Open() {
		hi = sort.Search(len(recs), func(i int) bool { return recs[i].Round > w.To })
	}
	if lo >= hi {
		return model.Ledger{}, nil
	}
	return slices.Clone(recs[lo:hi]), nil
}

// Replace implements Store.Replace.
func (s *LedgerStore) Replace(ctx context.Context, l model.Ledger) error {
	if err := validate(l); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(slices.Clone(l))
	return nil
}

// Append implements Store.Append.
func (s *LedgerStore) Append(ctx context.Context, recs ...model.Record) error {
	if err := validate(recs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snap.Load().Records
	next := make(model.Ledger, 0, len(cur)+len(recs))
	next = append(next, cur...)
	next = append(next, recs...)
	s.publish(next)
	return nil
}

// Count returns the number of records.
func (s *LedgerStore) Count(ctx context.Context) int {
	return len(s.snap.Load().Records)
}

// Stats returns record, user and round totals.
func (s *LedgerStore) Stats(ctx context.Context) Stats {
	snap := s.snap.Load()
	first, last, _ := snap.Records.Rounds()
	return Stats{Records: len(snap.Records), Users: snap.Users, FirstRound: first, LatestRound: last}
}

// publish sorts recs by round and stores them as the new snapshot.
// Callers hold mu and pass a slice nobody else references.
func (s *LedgerStore) publish(recs model.Ledger) {
	slices.SortStableFunc(recs, func(a, b model.Record) int { return a.Round - b.Round })
	users := make(map[string]struct{})
	for _, r := range recs {
		users[r.User] = struct{}{}
	}
	s.snap.Store(&Snapshot{Records: recs, Users: len(users)})
	metrics.IncrementLedgerSnapshotCount()
	s.updateMetrics()
}

func validate(recs []model.Record) error {
	for i, r := range recs {
		if r.Round <= 0 {
			metrics.RecordErrorByComponent("repository", "invalid_record")
			return fmt.Errorf("%w: row %d has round %d", ErrInvalidRecord, i, r.Round)
		}
		if r.User == "" {
			metrics.RecordErrorByComponent("repository", "invalid_record")
			return fmt.Errorf("%w: row %d has no user", ErrInvalidRecord, i)
		}
	}
	return nil
}

// startMetricsUpdater republishes ledger gauges periodically.
func (s *LedgerStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *LedgerStore) updateMetrics() {
	st := s.Stats(context.Background())
	metrics.UpdateLedgerRecordsTotal(st.Records)
	metrics.UpdateLedgerUsersTotal(st.Users)
	metrics.UpdateLedgerLatestRound(st.LatestRound)
}
