// Package lookuptable serves price history, resolution dates, tax-year round
// ranges and a static spot price from a YAML file.
//
// Example:
//
//	spot:
//	  nmr: 12.40
//	tournaments:
//	  1:
//	    years:
//	      2017: [1, 86]
//	    rounds:
//	      58: {price: 10.10, date: 2017-04-26}
//	      59: {price: 9.85, date: 2017-05-03}
package lookuptable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/pkg/metrics"
)

// DateLayout is the format of round dates in the file.
const DateLayout = "2006-01-02"

// ErrInvalidTable marks a lookup file that cannot be used.
var ErrInvalidTable = errors.New("invalid lookup table")

type fileRound struct {
	Price *float64 `yaml:"price,omitempty"`
	Date  string   `yaml:"date,omitempty"`
}

type fileTournament struct {
	Years  map[int][]int     `yaml:"years,omitempty"`
	Rounds map[int]fileRound `yaml:"rounds,omitempty"`
}

type file struct {
	Spot        map[string]float64      `yaml:"spot,omitempty"`
	Tournaments map[int]*fileTournament `yaml:"tournaments,omitempty"`
}

// Table holds every lookup loaded from one file. It is immutable once built.
type Table struct {
	spot        map[string]float64
	tournaments map[int]*Tournament
}

// Tournament is the per-tournament view: price history and round dates.
type Tournament struct {
	id     int
	years  map[int]model.Window
	prices map[int]float64
	dates  map[int]time.Time
}

// Load reads a table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lookup table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lookup table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a table from YAML.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	t := &Table{
		spot:        make(map[string]float64, len(f.Spot)),
		tournaments: make(map[int]*Tournament, len(f.Tournaments)),
	}
	for ticker, p := range f.Spot {
		t.spot[strings.ToLower(ticker)] = p
	}
	for id, ft := range f.Tournaments {
		if ft == nil {
			ft = &fileTournament{}
		}
		tt := &Tournament{
			id:     id,
			years:  make(map[int]model.Window, len(ft.Years)),
			prices: make(map[int]float64),
			dates:  make(map[int]time.Time),
		}
		for year, bounds := range ft.Years {
			if len(bounds) != 2 || bounds[0] <= 0 || bounds[0] > bounds[1] {
				return nil, fmt.Errorf("%w: tournament %d year %d has range %v", ErrInvalidTable, id, year, bounds)
			}
			tt.years[year] = model.Window{From: bounds[0], To: bounds[1]}
		}
		for round, fr := range ft.Rounds {
			if fr.Price != nil {
				tt.prices[round] = *fr.Price
			}
			if fr.Date != "" {
				d, err := time.Parse(DateLayout, fr.Date)
				if err != nil {
					return nil, fmt.Errorf("%w: tournament %d round %d: %v", ErrInvalidTable, id, round, err)
				}
				tt.dates[round] = d
			}
		}
		t.tournaments[id] = tt
	}
	return t, nil
}

// Tournament returns the view for one tournament. Unknown tournaments get
// an empty view whose lookups all miss.
func (t *Table) Tournament(id int) *Tournament {
	if tt, ok := t.tournaments[id]; ok {
		return tt
	}
	return &Tournament{id: id}
}

// Spot implements lookup.PriceOracle with the file's static prices.
func (t *Table) Spot(ctx context.Context, ticker string) (float64, error) {
	defer observe(lookup.ServiceSpot, time.Now())
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, ok := t.spot[strings.ToLower(ticker)]
	if !ok {
		metrics.RecordErrorByComponent("lookuptable", "miss")
		return 0, lookup.Missing(lookup.ServiceSpot, ticker)
	}
	return p, nil
}

// Resolve implements lookup.RoundRangeResolver.
func (t *Table) Resolve(ctx context.Context, year, tournament int) (model.Window, error) {
	defer observe(lookup.ServiceRanges, time.Now())
	if err := ctx.Err(); err != nil {
		return model.Window{}, err
	}
	w, ok := t.Tournament(tournament).years[year]
	if !ok {
		metrics.RecordErrorByComponent("lookuptable", "miss")
		return model.Window{}, lookup.Missing(lookup.ServiceRanges, fmt.Sprintf("%d/t%d", year, tournament))
	}
	return w, nil
}

// At implements lookup.PriceHistory.
func (t *Tournament) At(ctx context.Context, round int) (float64, error) {
	defer observe(lookup.ServicePrice, time.Now())
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, ok := t.prices[round]
	if !ok {
		metrics.RecordErrorByComponent("lookuptable", "miss")
		return 0, lookup.Missing(lookup.ServicePrice, round)
	}
	return p, nil
}

// Resolve implements lookup.RoundDateResolver.
func (t *Tournament) Resolve(ctx context.Context, round int) (time.Time, error) {
	defer observe(lookup.ServiceDate, time.Now())
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	d, ok := t.dates[round]
	if !ok {
		metrics.RecordErrorByComponent("lookuptable", "miss")
		return time.Time{}, lookup.Missing(lookup.ServiceDate, round)
	}
	return d, nil
}

func observe(service string, start time.Time) {
	metrics.RecordLookup(service, "table", float64(time.Since(start).Microseconds())/1000)
}

// Builder assembles a lookup file.
type Builder struct {
	f file
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{f: file{
		Spot:        make(map[string]float64),
		Tournaments: make(map[int]*fileTournament),
	}}
}

func (b *Builder) tournament(id int) *fileTournament {
	ft, ok := b.f.Tournaments[id]
	if !ok {
		ft = &fileTournament{Years: make(map[int][]int), Rounds: make(map[int]fileRound)}
		b.f.Tournaments[id] = ft
	}
	return ft
}

// Spot sets the static spot price of ticker.
func (b *Builder) Spot(ticker string, price float64) *Builder {
	b.f.Spot[strings.ToLower(ticker)] = price
	return b
}

// Year maps a tax year to the rounds w of a tournament.
func (b *Builder) Year(tournament, year int, w model.Window) *Builder {
	b.tournament(tournament).Years[year] = []int{w.From, w.To}
	return b
}

// Round records the resolution date of a round and, when price is not nil,
// its historical price.
func (b *Builder) Round(tournament, round int, price *float64, date time.Time) *Builder {
	fr := fileRound{Price: price}
	if !date.IsZero() {
		fr.Date = date.Format(DateLayout)
	}
	b.tournament(tournament).Rounds[round] = fr
	return b
}

// Write encodes the table as YAML.
func (b *Builder) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b.f); err != nil {
		return fmt.Errorf("encode lookup table: %w", err)
	}
	return enc.Close()
}
