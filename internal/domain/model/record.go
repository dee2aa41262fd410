// Package model contains domain models passed between layers.
package model

// Latest marks an open-ended window: through the latest available round.
const Latest = 0

// Record is one ledger row: a user's outcome for a single round.
// A user may have more than one row for the same round.
type Record struct {
	Round    int      // tournament round
	User     string   // participant identifier
	Live     *float64 // live logloss; nil when no live predictions were submitted
	USDMain  float64  // usd payout, main tournament
	USDStake float64  // usd payout, staking
	NMRMain  float64  // nmr payout, main tournament
	NMRStake float64  // nmr payout, staking
	NMRBurn  float64  // nmr burned; a cost
	Stake    float64  // nmr staked for the round
}

// HasLive reports whether the record carries a live score.
func (r Record) HasLive() bool { return r.Live != nil }

// Float returns a pointer to v, for building records with a live score.
func Float(v float64) *float64 { return &v }

// Window is an inclusive round range [From, To]. To == Latest means the
// window runs through the latest round in the ledger.
type Window struct {
	From int
	To   int
}

// Open reports whether the window has no upper bound.
func (w Window) Open() bool { return w.To == Latest }

// Contains reports whether round falls inside the window.
func (w Window) Contains(round int) bool {
	if round < w.From {
		return false
	}
	return w.Open() || round <= w.To
}

// Valid reports whether the window bounds are ordered.
func (w Window) Valid() bool {
	return w.Open() || w.From <= w.To
}

// Ledger is a read-only sequence of records. Operations never mutate it.
type Ledger []Record

// Slice returns the records whose round falls inside w, preserving order.
func (l Ledger) Slice(w Window) Ledger {
	out := make(Ledger, 0, len(l))
	for _, r := range l {
		if w.Contains(r.Round) {
			out = append(out, r)
		}
	}
	return out
}

// ForUser returns the records belonging to user, preserving order.
func (l Ledger) ForUser(user string) Ledger {
	out := make(Ledger, 0)
	for _, r := range l {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

// Rounds returns the smallest and largest round present. ok is false for
// an empty ledger.
func (l Ledger) Rounds() (first, last int, ok bool) {
	if len(l) == 0 {
		return 0, 0, false
	}
	first, last = l[0].Round, l[0].Round
	for _, r := range l[1:] {
		if r.Round < first {
			first = r.Round
		}
		if r.Round > last {
			last = r.Round
		}
	}
	return first, last, true
}
