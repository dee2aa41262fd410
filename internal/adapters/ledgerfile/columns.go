package ledgerfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/roundreport/internal/domain/model"
)

// Header is the column order written by WriteCSV and WriteXLSX.
var Header = []string{"round", "user", "live", "usd_main", "usd_stake", "nmr_main", "nmr_stake", "nmr_burn", "s"}

var aliases = map[string]string{
	"stake":    "s",
	"username": "user",
}

type setter func(r *model.Record, v string) error

func floatField(dst func(r *model.Record) *float64) setter {
	return func(r *model.Record, v string) error {
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(r) = f
		return nil
	}
}

var setters = map[string]setter{
	"round": func(r *model.Record, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		r.Round = n
		return nil
	},
	"user": func(r *model.Record, v string) error {
		r.User = v
		return nil
	},
	"live": func(r *model.Record, v string) error {
		if v == "" || strings.EqualFold(v, "nan") {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		r.Live = &f
		return nil
	},
	"usd_main":  floatField(func(r *model.Record) *float64 { return &r.USDMain }),
	"usd_stake": floatField(func(r *model.Record) *float64 { return &r.USDStake }),
	"nmr_main":  floatField(func(r *model.Record) *float64 { return &r.NMRMain }),
	"nmr_stake": floatField(func(r *model.Record) *float64 { return &r.NMRStake }),
	"nmr_burn":  floatField(func(r *model.Record) *float64 { return &r.NMRBurn }),
	"s":         floatField(func(r *model.Record) *float64 { return &r.Stake }),
}

// parseRows turns a header row plus data rows into records. Unknown columns
// are ignored; round and user are required.
func parseRows(rows [][]string) (model.Ledger, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	cols := make([]string, len(rows[0]))
	present := make(map[string]bool)
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		if a, ok := aliases[name]; ok {
			name = a
		}
		if _, ok := setters[name]; ok {
			cols[i] = name
			present[name] = true
		}
	}
	for _, req := range []string{"round", "user"} {
		if !present[req] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	out := make(model.Ledger, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		var rec model.Record
		for i, v := range row {
			if i >= len(cols) || cols[i] == "" {
				continue
			}
			if err := setters[cols[i]](&rec, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrMalformedRow, n+2, cols[i], err)
			}
		}
		if rec.User == "" {
			return nil, fmt.Errorf("%w: line %d has no user", ErrMalformedRow, n+2)
		}
		out = append(out, rec)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// formatRow renders r in Header order.
func formatRow(r model.Record) []string {
	live := ""
	if r.Live != nil {
		live = formatFloat(*r.Live)
	}
	return []string{
		strconv.Itoa(r.Round),
		r.User,
		live,
		formatFloat(r.USDMain),
		formatFloat(r.USDStake),
		formatFloat(r.NMRMain),
		formatFloat(r.NMRStake),
		formatFloat(r.NMRBurn),
		formatFloat(r.Stake),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
