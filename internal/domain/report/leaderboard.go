package report

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/okian/roundreport/internal/domain/aggregate"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/selector"
	"github.com/okian/roundreport/internal/domain/types"
)

// StakeReport ranks users by staking profit.
type StakeReport struct {
	Span  Span             `json:"span"`
	Price float64          `json:"price"`
	Rows  []types.StakeRow `json:"rows"`
}

// EarnReport ranks users by total profit.
type EarnReport struct {
	Span  Span            `json:"span"`
	Price float64         `json:"price"`
	Rows  []types.EarnRow `json:"rows"`
}

// BurnReport ranks users by burned nmr.
type BurnReport struct {
	Span Span            `json:"span"`
	Rows []types.BurnRow `json:"rows"`
}

// ParticipationReport ranks users by rounds entered.
type ParticipationReport struct {
	Span Span                     `json:"span"`
	Rows []types.ParticipationRow `json:"rows"`
}

// BigStakerReport ranks users by total nmr staked.
type BigStakerReport struct {
	Span Span                 `json:"span"`
	Rows []types.BigStakerRow `json:"rows"`
}

// NewUsersReport counts first appearances per round.
type NewUsersReport struct {
	Span Span                `json:"span"`
	Rows []types.NewUsersRow `json:"rows"`
}

// Stake reports staking earnings valued at the current spot price.
func (e *Engine) Stake(ctx context.Context, w model.Window, limit selector.Limit) (StakeReport, error) {
	l, err := e.slice(ctx, w)
	if err != nil {
		return StakeReport{}, err
	}
	price, err := e.spot(ctx)
	if err != nil {
		return StakeReport{}, err
	}
	return StakeReport{Span: spanOf(l), Price: price, Rows: StakeRows(l, price, limit)}, nil
}

// Earn reports total earnings valued at the current spot price.
func (e *Engine) Earn(ctx context.Context, w model.Window, limit selector.Limit) (EarnReport, error) {
	l, err := e.slice(ctx, w)
	if err != nil {
		return EarnReport{}, err
	}
	price, err := e.spot(ctx)
	if err != nil {
		return EarnReport{}, err
	}
	return EarnReport{Span: spanOf(l), Price: price, Rows: EarnRows(l, price, limit)}, nil
}

// Burn reports burned nmr.
func (e *Engine) Burn(ctx context.Context, w model.Window, limit selector.Limit) (BurnReport, error) {
	l, err := e.slice(ctx, w)
	if err != nil {
		return BurnReport{}, err
	}
	return BurnReport{Span: spanOf(l), Rows: BurnRows(l, limit)}, nil
}

// Participation reports how many rounds each user entered.
func (e *Engine) Participation(ctx context.Context, w model.Window, limit selector.Limit) (ParticipationReport, error) {
	l, err := e.slice(ctx, w)
	if err != nil {
		return ParticipationReport{}, err
	}
	return ParticipationReport{Span: spanOf(l), Rows: ParticipationRows(l, limit)}, nil
}

// BigStaker reports the total stake placed by each user.
func (e *Engine) BigStaker(ctx context.Context, w model.Window, limit selector.Limit) (BigStakerReport, error) {
	l, err := e.slice(ctx, w)
	if err != nil {
		return BigStakerReport{}, err
	}
	return BigStakerReport{Span: spanOf(l), Rows: BigStakerRows(l, limit)}, nil
}

// NewUsers counts new users per round.
func (e *Engine) NewUsers(ctx context.Context, w model.Window) (NewUsersReport, error) {
	l, err := e.slice(ctx, w)
	if err != nil {
		return NewUsersReport{}, err
	}
	return NewUsersReport{Span: spanOf(l), Rows: NewUsersRows(l)}, nil
}

// UserParticipation lists the rounds user appears in. An unknown user
// yields an empty list.
func (e *Engine) UserParticipation(ctx context.Context, user string, w model.Window) ([]int, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	l, err := e.slice(ctx, w)
	if err != nil {
		return nil, err
	}
	return UserRounds(l, user), nil
}

// roundUnits rounds half to even, then truncates to an integer.
func roundUnits(x float64) int64 {
	return int64(math.RoundToEven(x))
}

// byDesc sorts rows by value descending. Rows arrive ordered by user, and
// the stable sort keeps that order among ties.
func byDesc[T any](rows []T, value func(T) float64) {
	slices.SortStableFunc(rows, func(a, b T) int {
		return cmp.Compare(value(b), value(a))
	})
}

// StakeRows computes the stake leaderboard for a ledger slice.
// profit_usd = usd_stake + price * (nmr_stake - nmr_burn).
func StakeRows(l model.Ledger, price float64, limit selector.Limit) []types.StakeRow {
	type row struct {
		user                           string
		usdStake, nmrStake, nmrBurn, p float64
	}
	groups := aggregate.Sum(l, aggregate.ByUser, aggregate.USDStake, aggregate.NMRStake, aggregate.NMRBurn)
	rows := make([]row, len(groups))
	for i, g := range groups {
		usd, stake, burn := g.Values[0], g.Values[1], g.Values[2]
		rows[i] = row{user: g.Key, usdStake: usd, nmrStake: stake, nmrBurn: burn, p: usd + price*(stake-burn)}
	}
	byDesc(rows, func(r row) float64 { return r.p })
	rows = selector.Apply(rows, limit)

	out := make([]types.StakeRow, len(rows))
	for i, r := range rows {
		out[i] = types.StakeRow{
			User:      r.user,
			USDStake:  roundUnits(r.usdStake),
			NMRStake:  roundUnits(r.nmrStake),
			NMRBurn:   roundUnits(r.nmrBurn),
			ProfitUSD: roundUnits(r.p),
		}
	}
	return out
}

// EarnRows computes the earnings leaderboard for a ledger slice.
// profit_usd = usd_main + usd_stake + price * (nmr_main + nmr_stake - nmr_burn).
func EarnRows(l model.Ledger, price float64, limit selector.Limit) []types.EarnRow {
	type row struct {
		user string
		v    []float64
		p    float64
	}
	groups := aggregate.Sum(l, aggregate.ByUser,
		aggregate.USDMain, aggregate.USDStake, aggregate.NMRMain, aggregate.NMRStake, aggregate.NMRBurn)
	rows := make([]row, len(groups))
	for i, g := range groups {
		v := g.Values
		rows[i] = row{user: g.Key, v: v, p: v[0] + v[1] + price*(v[2]+v[3]-v[4])}
	}
	byDesc(rows, func(r row) float64 { return r.p })
	rows = selector.Apply(rows, limit)

	out := make([]types.EarnRow, len(rows))
	for i, r := range rows {
		out[i] = types.EarnRow{
			User:      r.user,
			USDMain:   roundUnits(r.v[0]),
			USDStake:  roundUnits(r.v[1]),
			NMRMain:   roundUnits(r.v[2]),
			NMRStake:  roundUnits(r.v[3]),
			NMRBurn:   roundUnits(r.v[4]),
			ProfitUSD: roundUnits(r.p),
		}
	}
	return out
}

// BurnRows computes the burn leaderboard for a ledger slice.
func BurnRows(l model.Ledger, limit selector.Limit) []types.BurnRow {
	groups := aggregate.Sum(l, aggregate.ByUser, aggregate.NMRBurn)
	byDesc(groups, func(g aggregate.Group[string]) float64 { return g.Values[0] })
	groups = selector.Apply(groups, limit)

	out := make([]types.BurnRow, len(groups))
	for i, g := range groups {
		out[i] = types.BurnRow{User: g.Key, NMRBurn: roundUnits(g.Values[0])}
	}
	return out
}

// BigStakerRows ranks users by the sum of their stakes.
func BigStakerRows(l model.Ledger, limit selector.Limit) []types.BigStakerRow {
	groups := aggregate.Sum(l, aggregate.ByUser, aggregate.Stake)
	out := make([]types.BigStakerRow, len(groups))
	for i, g := range groups {
		out[i] = types.BigStakerRow{User: g.Key, Sum: g.Values[0]}
	}
	byDesc(out, func(r types.BigStakerRow) float64 { return r.Sum })
	return selector.Apply(out, limit)
}

// ParticipationRows ranks users by distinct rounds entered, then by fewest
// skipped rounds. Duplicate rows for a round count once.
func ParticipationRows(l model.Ledger, limit selector.Limit) []types.ParticipationRow {
	counts := aggregate.CountDistinct(l, aggregate.ByUser, aggregate.ByRound)
	spans := aggregate.Extent(l, aggregate.ByUser, aggregate.ByRound)

	// Both results are sorted by user and cover the same users.
	out := make([]types.ParticipationRow, len(counts))
	for i, c := range counts {
		s := spans[i]
		out[i] = types.ParticipationRow{
			User:    c.Key,
			Count:   c.N,
			First:   s.Min,
			Last:    s.Max,
			Skipped: s.Max - s.Min + 1 - c.N,
		}
	}
	slices.SortStableFunc(out, func(a, b types.ParticipationRow) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Skipped, b.Skipped)
	})
	return selector.Apply(out, limit)
}

// NewUsersRows counts, for every round between the first and last round of
// the slice, the users whose first round in the slice is that round.
func NewUsersRows(l model.Ledger) []types.NewUsersRow {
	first, last, ok := l.Rounds()
	if !ok {
		return []types.NewUsersRow{}
	}
	arrivals := make(map[int]int)
	for _, s := range aggregate.Extent(l, aggregate.ByUser, aggregate.ByRound) {
		arrivals[s.Min]++
	}
	out := make([]types.NewUsersRow, 0, last-first+1)
	for r := first; r <= last; r++ {
		out = append(out, types.NewUsersRow{Round: r, Count: arrivals[r]})
	}
	return out
}

// UserRounds lists the distinct rounds of user in ledger order.
func UserRounds(l model.Ledger, user string) []int {
	return aggregate.DistinctRounds(l.ForUser(user))
}
