package report_test

import (
	"context"
	"errors"
	"time"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
)

var errBoom = errors.New("boom")

type ledgerSource struct {
	ledger model.Ledger
	err    error
	last   model.Window
}

func (s *ledgerSource) Slice(_ context.Context, w model.Window) (model.Ledger, error) {
	s.last = w
	if s.err != nil {
		return nil, s.err
	}
	return s.ledger.Slice(w), nil
}

type spotPrice struct {
	price float64
	err   error
	calls int
}

func (s *spotPrice) Spot(_ context.Context, _ string) (float64, error) {
	s.calls++
	return s.price, s.err
}

type priceHistory struct {
	prices map[int]float64
	asked  []int
}

func (h *priceHistory) At(_ context.Context, round int) (float64, error) {
	h.asked = append(h.asked, round)
	p, ok := h.prices[round]
	if !ok {
		return 0, lookup.Missing(lookup.ServicePrice, round)
	}
	return p, nil
}

type dateTable map[int]time.Time

func (d dateTable) Resolve(_ context.Context, round int) (time.Time, error) {
	t, ok := d[round]
	if !ok {
		return time.Time{}, lookup.Missing(lookup.ServiceDate, round)
	}
	return t, nil
}

type rangeTable struct {
	windows map[int]model.Window
	err     error
}

func (r rangeTable) Resolve(_ context.Context, year, _ int) (model.Window, error) {
	if r.err != nil {
		return model.Window{}, r.err
	}
	w, ok := r.windows[year]
	if !ok {
		return model.Window{}, lookup.Missing(lookup.ServiceRanges, year)
	}
	return w, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
