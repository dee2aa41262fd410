package ledgergen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/roundreport/internal/adapters/lookuptable"
	"github.com/okian/roundreport/internal/domain/dedupe"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/scoring"
)

// Shape of the generated data.
const (
	liveRate       = 0.85 // share of rows with a live score
	liveMean       = 0.690
	liveSpread     = 0.008
	stakeRate      = 0.20 // share of live rows that stake
	maxStake       = 50.0
	payoutRate     = 0.30 // share of winning rows paid from the main pool
	maxUSDMain     = 100.0
	maxNMRMain     = 3.0
	stakeReturn    = 0.25 // nmr earned per nmr staked on a win
	duplicateRate  = 0.02 // share of rows repeated within the same round
	startPrice     = 1.0
	priceDrift     = 0.04
	spotMultiplier = 1.1
	roundInterval  = 7 * 24 * time.Hour
)

// generator holds the random source for one run.
type generator struct {
	rng *rand.Rand
	cfg Config
}

type user struct {
	name   string
	joins  int
	active float64
}

func newGenerator(cfg Config) *generator {
	return &generator{rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)), cfg: cfg}
}

// Generate builds a ledger for cfg. Rows are ordered by round.
func Generate(ctx context.Context, cfg Config) (model.Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := newGenerator(cfg)
	users := g.users()

	out := make(model.Ledger, 0, cfg.Users*cfg.Rounds/2)
	for round := cfg.FirstRound; round <= cfg.LastRound(); round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate round %d: %w", round, err)
		}
		for _, u := range users {
			if round < u.joins || (round > u.joins && g.rng.Float64() > u.active) {
				continue
			}
			rec := g.record(round, u.name)
			out = append(out, rec)
			if g.rng.Float64() < duplicateRate {
				out = append(out, g.record(round, u.name))
			}
		}
	}
	return out, nil
}

// users draws distinct names, join rounds and activity levels. Every user
// enters the round they join.
func (g *generator) users() []user {
	seen := dedupe.NewSet[string]()
	out := make([]user, 0, g.cfg.Users)
	for len(out) < g.cfg.Users {
		name := g.name()
		if seen.SeenAndRecord(name) {
			continue
		}
		out = append(out, user{
			name:   name,
			joins:  g.cfg.FirstRound + g.rng.IntN(g.cfg.Rounds),
			active: 0.3 + 0.7*g.rng.Float64(),
		})
	}
	return out
}

// name derives a uuid-shaped user name from the seeded source so runs repeat.
func (g *generator) name() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(g.rng.UintN(256))
	}
	return "u_" + uuid.Must(uuid.FromBytes(b[:])).String()[:8]
}

func (g *generator) record(round int, name string) model.Record {
	rec := model.Record{Round: round, User: name}
	if g.rng.Float64() >= liveRate {
		return rec
	}
	live := liveMean + g.rng.NormFloat64()*liveSpread
	rec.Live = model.Float(roundTo(live, 5))
	win := live < scoring.LogLossBenchmark

	if win && g.rng.Float64() < payoutRate {
		rec.USDMain = roundTo(g.rng.Float64()*maxUSDMain, 2)
		rec.NMRMain = roundTo(g.rng.Float64()*maxNMRMain, 2)
	}
	if g.rng.Float64() < stakeRate {
		rec.Stake = roundTo(1+g.rng.Float64()*(maxStake-1), 2)
		if win {
			rec.NMRStake = roundTo(rec.Stake*stakeReturn, 2)
		} else {
			rec.NMRBurn = rec.Stake
		}
	}
	return rec
}

// Lookup builds the lookup table matching cfg: one resolution date and
// price per round, tax-year ranges from those dates and a spot price.
func Lookup(cfg Config) (*lookuptable.Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := newGenerator(cfg)
	b := lookuptable.NewBuilder()

	price := startPrice
	years := make(map[int]model.Window)
	for i := 0; i < cfg.Rounds; i++ {
		round := cfg.FirstRound + i
		date := cfg.StartDate.Add(time.Duration(i) * roundInterval)
		p := roundTo(price, 4)
		b.Round(cfg.Tournament, round, &p, date)
		price = math.Max(0.01, price*(1+priceDrift*g.rng.NormFloat64()))

		w, ok := years[date.Year()]
		if !ok {
			w.From = round
		}
		w.To = round
		years[date.Year()] = w
	}
	for year, w := range years {
		b.Year(cfg.Tournament, year, w)
	}
	b.Spot("nmr", roundTo(price*spotMultiplier, 4))
	return b, nil
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
