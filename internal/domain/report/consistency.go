package report

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/roundreport/internal/domain/aggregate"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/scoring"
	"github.com/okian/roundreport/internal/domain/types"
)

// ConsistencyReport holds the share of winning rounds per user.
type ConsistencyReport struct {
	Span Span                   `json:"span"`
	Rows []types.ConsistencyRow `json:"rows"`
}

// Consistency reports how often each regular participant beat the
// benchmark. Users with fewer live rounds than minFraction of the rounds in
// the window are left out.
func (e *Engine) Consistency(ctx context.Context, w model.Window, minFraction float64) (ConsistencyReport, error) {
	if math.IsNaN(minFraction) || minFraction < 0 || minFraction > 1 {
		return ConsistencyReport{}, fmt.Errorf("%w: %v", ErrInvalidFraction, minFraction)
	}
	l, err := e.slice(ctx, w)
	if err != nil {
		return ConsistencyReport{}, err
	}
	return ConsistencyReport{Span: spanOf(l), Rows: ConsistencyRows(l, e.classifier, minFraction)}, nil
}

// ConsistencyRows computes consistency for a ledger slice.
func ConsistencyRows(l model.Ledger, c *scoring.Classifier, minFraction float64) []types.ConsistencyRow {
	live := make([]model.Record, 0, len(l))
	for _, r := range l {
		if r.HasLive() {
			live = append(live, r)
		}
	}
	live = aggregate.DedupeRoundUser(live)
	columns := len(aggregate.DistinctRounds(live))

	type tally struct{ rounds, wins int }
	tallies := make(map[string]*tally)
	for _, r := range live {
		t, ok := tallies[r.User]
		if !ok {
			t = &tally{}
			tallies[r.User] = t
		}
		t.rounds++
		if c.IsWin(r.Round, *r.Live) {
			t.wins++
		}
	}

	need := minFraction * float64(columns)
	out := make([]types.ConsistencyRow, 0, len(tallies))
	for user, t := range tallies {
		if float64(t.rounds) < need {
			continue
		}
		ratio := 0.0
		if t.rounds > 0 {
			ratio = float64(t.wins) / float64(t.rounds)
		}
		out = append(out, types.ConsistencyRow{User: user, Rounds: t.rounds, Consistency: ratio})
	}
	slices.SortFunc(out, func(a, b types.ConsistencyRow) int {
		if c := cmp.Compare(b.Consistency, a.Consistency); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Rounds, a.Rounds); c != 0 {
			return c
		}
		return cmp.Compare(a.User, b.User)
	})
	return out
}
