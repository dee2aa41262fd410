package ledgergen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/roundreport/internal/adapters/ledgerfile"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
)

// Run generates a ledger and, when cfg.LookupPath is set, a lookup table,
// and writes both to disk.
func Run(ctx context.Context, cfg Config, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()

	log.Info(ctx, "generating ledger",
		logger.Int("users", cfg.Users),
		logger.Int("firstRound", cfg.FirstRound),
		logger.Int("rounds", cfg.Rounds),
		logger.Any("seed", cfg.Seed),
	)

	l, err := Generate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ledger generation failed: %w", err)
	}
	if err := writeLedger(cfg.LedgerPath, l); err != nil {
		return err
	}

	if cfg.LookupPath != "" {
		b, err := Lookup(cfg)
		if err != nil {
			return fmt.Errorf("lookup generation failed: %w", err)
		}
		if err := writeFile(cfg.LookupPath, b.Write); err != nil {
			return err
		}
	}

	first, last, _ := l.Rounds()
	log.Info(ctx, "ledger written",
		logger.String("ledger", cfg.LedgerPath),
		logger.String("lookup", cfg.LookupPath),
		logger.Int("records", len(l)),
		logger.Int("firstRound", first),
		logger.Int("lastRound", last),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

func writeLedger(path string, l model.Ledger) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeFile(path, func(w io.Writer) error { return ledgerfile.WriteCSV(w, l) })
	case ".xlsx":
		return writeFile(path, func(w io.Writer) error { return ledgerfile.WriteXLSX(w, l) })
	default:
		return fmt.Errorf("%w: %q", ledgerfile.ErrUnsupportedFormat, ext)
	}
}

// writeFile creates path, and its directory, and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
