// Package types contains the report row shapes returned to callers.
package types

import "time"

// TaxRow is one round of an unofficial 1099-MISC report.
type TaxRow struct {
	Round    int       `json:"round"`
	Date     time.Time `json:"date"`
	USDMain  float64   `json:"usd_main"`
	USDStake float64   `json:"usd_stake"`
	NMRMain  float64   `json:"nmr_main"`
	NMRStake float64   `json:"nmr_stake"`
	NMRUSD   float64   `json:"nmr_usd"`
	Total    float64   `json:"total"`
}

// ConsistencyRow holds a user's share of winning rounds.
type ConsistencyRow struct {
	User        string  `json:"user"`
	Rounds      int     `json:"rounds"`
	Consistency float64 `json:"consistency"`
}

// StakeRow is a staking earnings entry, rounded to whole units.
type StakeRow struct {
	User      string `json:"user"`
	USDStake  int64  `json:"usd_stake"`
	NMRStake  int64  `json:"nmr_stake"`
	NMRBurn   int64  `json:"nmr_burn"`
	ProfitUSD int64  `json:"profit_usd"`
}

// EarnRow is a total earnings entry, rounded to whole units.
type EarnRow struct {
	User      string `json:"user"`
	USDMain   int64  `json:"usd_main"`
	USDStake  int64  `json:"usd_stake"`
	NMRMain   int64  `json:"nmr_main"`
	NMRStake  int64  `json:"nmr_stake"`
	NMRBurn   int64  `json:"nmr_burn"`
	ProfitUSD int64  `json:"profit_usd"`
}

// BurnRow is a burned-nmr entry, rounded to whole units.
type BurnRow struct {
	User    string `json:"user"`
	NMRBurn int64  `json:"nmr_burn"`
}

// ParticipationRow summarizes which rounds a user entered.
type ParticipationRow struct {
	User    string `json:"user"`
	Count   int    `json:"count"`
	First   int    `json:"first"`
	Last    int    `json:"last"`
	Skipped int    `json:"skipped"`
}

// BigStakerRow is the total nmr a user staked.
type BigStakerRow struct {
	User string  `json:"user"`
	Sum  float64 `json:"sum"`
}

// NewUsersRow counts users whose first round is Round.
type NewUsersRow struct {
	Round int `json:"round"`
	Count int `json:"count"`
}

// ServiceStats is the /stats payload. Ledger is nil until the service starts.
type ServiceStats struct {
	Started    bool `json:"started"`
	Tournament int  `json:"tournament"`
	*LedgerStats
}

// LedgerStats describes the ledger a started service reports from.
type LedgerStats struct {
	Records           int `json:"records"`
	Users             int `json:"users"`
	FirstRound        int `json:"firstRound"`
	LatestRound       int `json:"latestRound"`
	DefaultFirstRound int `json:"defaultFirstRound"`
}
