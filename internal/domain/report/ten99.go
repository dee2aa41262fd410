package report

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/types"
)

// Ten99Report is an unofficial 1099-MISC report for one user and year.
type Ten99Report struct {
	User   string         `json:"user"`
	Year   int            `json:"year"`
	Window model.Window   `json:"window"`
	Rows   []types.TaxRow `json:"rows"`
}

// Ten99 builds the earnings report for user over the rounds resolved in
// year. Each round is valued at its historical resolution price; rounds
// where nothing was earned (burn-only rounds included) are left out.
func (e *Engine) Ten99(ctx context.Context, user string, year int) (Ten99Report, error) {
	if err := validUser(user); err != nil {
		return Ten99Report{}, err
	}
	if e.deps.Ranges == nil || e.deps.History == nil || e.deps.Dates == nil {
		return Ten99Report{}, fmt.Errorf("%w: ten99 lookups", ErrMissingDependency)
	}
	w, err := e.deps.Ranges.Resolve(ctx, year, e.cfg.Tournament)
	if err != nil {
		return Ten99Report{}, lookup.Wrap(lookup.ServiceRanges, year, err)
	}
	if !w.Valid() {
		return Ten99Report{}, fmt.Errorf("%w: year %d resolved to R%d - R%d", ErrInvalidWindow, year, w.From, w.To)
	}
	l, err := e.deps.Ledger.Slice(ctx, w)
	if err != nil {
		return Ten99Report{}, fmt.Errorf("slice ledger R%d - R%d: %w", w.From, w.To, err)
	}
	rows, err := e.taxRows(ctx, l.ForUser(user))
	if err != nil {
		return Ten99Report{}, err
	}
	return Ten99Report{User: user, Year: year, Window: w, Rows: rows}, nil
}

// earned reports whether the record paid out anything; burns do not count.
func earned(r model.Record) bool {
	return r.USDMain+r.USDStake+r.NMRMain+r.NMRStake != 0
}

func (e *Engine) taxRows(ctx context.Context, recs model.Ledger) ([]types.TaxRow, error) {
	out := make([]types.TaxRow, 0, len(recs))
	for _, r := range recs {
		if !earned(r) {
			continue
		}
		price, err := e.historicalPrice(ctx, r.Round)
		if err != nil {
			return nil, err
		}
		date, err := e.deps.Dates.Resolve(ctx, r.Round)
		if err != nil {
			return nil, lookup.Wrap(lookup.ServiceDate, r.Round, err)
		}
		total := r.USDMain + r.USDStake + (r.NMRMain+r.NMRStake)*price
		out = append(out, types.TaxRow{
			Round:    r.Round,
			Date:     date,
			USDMain:  r.USDMain,
			USDStake: r.USDStake,
			NMRMain:  r.NMRMain,
			NMRStake: r.NMRStake,
			NMRUSD:   cents(price),
			Total:    cents(total),
		})
	}
	slices.SortStableFunc(out, func(a, b types.TaxRow) int { return a.Round - b.Round })
	return out, nil
}

// historicalPrice returns the resolution price of round. The token was not
// tradable before PriceFreeBefore, so those rounds are worth exactly zero
// and the history is not consulted.
func (e *Engine) historicalPrice(ctx context.Context, round int) (float64, error) {
	if round < e.cfg.PriceFreeBefore {
		return 0, nil
	}
	p, err := e.deps.History.At(ctx, round)
	if err != nil {
		return 0, lookup.Wrap(lookup.ServicePrice, round, err)
	}
	return p, nil
}

// cents rounds a money amount to two decimals, half to even. The amount is
// scaled by 100 as a float first, so 2.675 (stored just below) gives 2.67.
func cents(x float64) float64 {
	return decimal.NewFromFloat(x * 100).RoundBank(0).Shift(-2).InexactFloat64()
}
