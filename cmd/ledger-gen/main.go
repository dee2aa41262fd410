package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/roundreport/internal/ledgergen"
	"github.com/okian/roundreport/pkg/logger"
)

const defaultTimeout = 5 * time.Minute

func main() {
	def := ledgergen.DefaultConfig()
	var (
		users      = flag.Int("users", def.Users, "Number of distinct users")
		firstRound = flag.Int("first-round", def.FirstRound, "First generated round")
		rounds     = flag.Int("rounds", def.Rounds, "Number of consecutive rounds")
		tournament = flag.Int("tournament", def.Tournament, "Tournament id for the lookup table")
		seed       = flag.Uint64("seed", def.Seed, "Random seed; equal seeds give equal output")
		start      = flag.String("start", def.StartDate.Format(time.DateOnly), "Resolution date of the first round (YYYY-MM-DD)")
		ledgerPath = flag.String("ledger", def.LedgerPath, "Ledger output (.csv or .xlsx)")
		lookupPath = flag.String("lookup", "", "Lookup table output (.yaml); skipped when empty")
		format     = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.InitWithOptions(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	startDate, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		os.Stderr.WriteString("invalid -start: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := ledgergen.Config{
		Users:      *users,
		FirstRound: *firstRound,
		Rounds:     *rounds,
		Tournament: *tournament,
		Seed:       *seed,
		StartDate:  startDate,
		LedgerPath: *ledgerPath,
		LookupPath: *lookupPath,
	}
	if err := ledgergen.Run(ctx, cfg, logger.Get()); err != nil {
		logger.Get().Error(ctx, "ledger generation failed", logger.Error(err))
		os.Exit(1)
	}
}
