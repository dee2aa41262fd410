// Package aggregate provides group-by primitives over ledger records.
//
// Columns are typed accessors rather than names, so every aggregation is
// checked at compile time. All results are sorted by key ascending.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/okian/roundreport/internal/domain/dedupe"
	"github.com/okian/roundreport/internal/domain/model"
)

// Column reads one numeric field of a record.
type Column struct {
	Name string
	Get  func(model.Record) float64
}

// Payout and stake columns.
var (
	USDMain  = Column{Name: "usd_main", Get: func(r model.Record) float64 { return r.USDMain }}
	USDStake = Column{Name: "usd_stake", Get: func(r model.Record) float64 { return r.USDStake }}
	NMRMain  = Column{Name: "nmr_main", Get: func(r model.Record) float64 { return r.NMRMain }}
	NMRStake = Column{Name: "nmr_stake", Get: func(r model.Record) float64 { return r.NMRStake }}
	NMRBurn  = Column{Name: "nmr_burn", Get: func(r model.Record) float64 { return r.NMRBurn }}
	Stake    = Column{Name: "s", Get: func(r model.Record) float64 { return r.Stake }}
)

// ByUser keys a record by participant.
func ByUser(r model.Record) string { return r.User }

// ByRound keys a record by round.
func ByRound(r model.Record) int { return r.Round }

// Group is the per-key sum of the requested columns, in column order.
type Group[K cmp.Ordered] struct {
	Key    K
	Values []float64
}

// Count is the number of distinct values seen for a key.
type Count[K cmp.Ordered] struct {
	Key K
	N   int
}

// Span is the smallest and largest value seen for a key.
type Span[K cmp.Ordered] struct {
	Key K
	Min int
	Max int
}

// Sum adds up cols for every key.
func Sum[K cmp.Ordered](recs []model.Record, key func(model.Record) K, cols ...Column) []Group[K] {
	idx := make(map[K]int)
	out := make([]Group[K], 0)
	for _, r := range recs {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Group[K]{Key: k, Values: make([]float64, len(cols))})
		}
		for c, col := range cols {
			out[i].Values[c] += col.Get(r)
		}
	}
	slices.SortFunc(out, func(a, b Group[K]) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// CountDistinct counts distinct values of distinct per key, so duplicate
// rows never inflate a count.
func CountDistinct[K cmp.Ordered](recs []model.Record, key func(model.Record) K, distinct func(model.Record) int) []Count[K] {
	type pair struct {
		k K
		v int
	}
	seen := dedupe.NewSet[pair]()
	idx := make(map[K]int)
	out := make([]Count[K], 0)
	for _, r := range recs {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Count[K]{Key: k})
		}
		if !seen.SeenAndRecord(pair{k, distinct(r)}) {
			out[i].N++
		}
	}
	slices.SortFunc(out, func(a, b Count[K]) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// Extent returns the min and max of value per key.
func Extent[K cmp.Ordered](recs []model.Record, key func(model.Record) K, value func(model.Record) int) []Span[K] {
	idx := make(map[K]int)
	out := make([]Span[K], 0)
	for _, r := range recs {
		k, v := key(r), value(r)
		i, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			out = append(out, Span[K]{Key: k, Min: v, Max: v})
			continue
		}
		out[i].Min = min(out[i].Min, v)
		out[i].Max = max(out[i].Max, v)
	}
	slices.SortFunc(out, func(a, b Span[K]) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// DedupeRoundUser keeps the first record of every (round, user) pair.
func DedupeRoundUser(recs []model.Record) []model.Record {
	type roundUser struct {
		round int
		user  string
	}
	seen := dedupe.NewSet[roundUser]()
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		if seen.SeenAndRecord(roundUser{r.Round, r.User}) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DistinctRounds returns the rounds of recs in first-seen order.
func DistinctRounds(recs []model.Record) []int {
	seen := dedupe.NewSet[int]()
	out := make([]int, 0)
	for _, r := range recs {
		if !seen.SeenAndRecord(r.Round) {
			out = append(out, r.Round)
		}
	}
	return out
}
