// Package export renders report results as XLSX workbooks and PNG charts.
package export

import (
	"fmt"

	"github.com/okian/roundreport/internal/domain/report"
)

// Table is a report flattened to a header and rows of cell values.
type Table struct {
	Sheet  string
	Title  string
	Header []string
	Rows   [][]any
}

func spanTitle(name string, s report.Span) string {
	return fmt.Sprintf("%s (R%d - R%d)", name, s.First, s.Last)
}

// StakeTable flattens a stake report.
func StakeTable(r report.StakeReport) Table {
	t := Table{
		Sheet:  "stake",
		Title:  fmt.Sprintf("%s at %.2f usd/nmr", spanTitle("Top stake earners", r.Span), r.Price),
		Header: []string{"user", "usd_stake", "nmr_stake", "nmr_burn", "profit_usd"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.User, row.USDStake, row.NMRStake, row.NMRBurn, row.ProfitUSD})
	}
	return t
}

// EarnTable flattens an earn report.
func EarnTable(r report.EarnReport) Table {
	t := Table{
		Sheet:  "earn",
		Title:  fmt.Sprintf("%s at %.2f usd/nmr", spanTitle("Top earners", r.Span), r.Price),
		Header: []string{"user", "usd_main", "usd_stake", "nmr_main", "nmr_stake", "nmr_burn", "profit_usd"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.User, row.USDMain, row.USDStake, row.NMRMain, row.NMRStake, row.NMRBurn, row.ProfitUSD})
	}
	return t
}

// BurnTable flattens a burn report.
func BurnTable(r report.BurnReport) Table {
	t := Table{Sheet: "burn", Title: spanTitle("Top burners", r.Span), Header: []string{"user", "nmr_burn"}}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.User, row.NMRBurn})
	}
	return t
}

// ParticipationTable flattens a participation report.
func ParticipationTable(r report.ParticipationReport) Table {
	t := Table{
		Sheet:  "participation",
		Title:  spanTitle("Participation", r.Span),
		Header: []string{"user", "count", "first", "last", "skipped"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.User, row.Count, row.First, row.Last, row.Skipped})
	}
	return t
}

// BigStakerTable flattens a big staker report.
func BigStakerTable(r report.BigStakerReport) Table {
	t := Table{Sheet: "big_staker", Title: spanTitle("Big stakers (in units of NMR)", r.Span), Header: []string{"user", "sum"}}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.User, row.Sum})
	}
	return t
}

// NewUsersTable flattens a new users report.
func NewUsersTable(r report.NewUsersReport) Table {
	t := Table{Sheet: "new_users", Title: spanTitle("Count of new users", r.Span), Header: []string{"round", "count"}}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.Round, row.Count})
	}
	return t
}

// ConsistencyTable flattens a consistency report.
func ConsistencyTable(r report.ConsistencyReport) Table {
	t := Table{Sheet: "consistency", Title: spanTitle("Consistency", r.Span), Header: []string{"user", "rounds", "consistency"}}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.User, row.Rounds, row.Consistency})
	}
	return t
}

// Ten99Table flattens a ten99 report.
func Ten99Table(r report.Ten99Report) Table {
	t := Table{
		Sheet:  fmt.Sprintf("1099 %d", r.Year),
		Title:  fmt.Sprintf("Unofficial 1099-MISC for %s, %d (R%d - R%d)", r.User, r.Year, r.Window.From, r.Window.To),
		Header: []string{"round", "date", "usd_main", "usd_stake", "nmr_main", "nmr_stake", "nmr_usd", "total"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{
			row.Round, row.Date.Format("2006-01-02"),
			row.USDMain, row.USDStake, row.NMRMain, row.NMRStake, row.NMRUSD, row.Total,
		})
	}
	return t
}

// UserRoundsTable lists the rounds a user entered.
func UserRoundsTable(user string, rounds []int) Table {
	t := Table{Sheet: "rounds", Title: fmt.Sprintf("Rounds entered by %s", user), Header: []string{"round"}}
	for _, r := range rounds {
		t.Rows = append(t.Rows, []any{r})
	}
	return t
}
