// Package repository holds the in-memory ledger the reports read from.
package repository

import (
	"context"

	"github.com/okian/roundreport/internal/domain/model"
)

// Stats summarises the ledger contents.
type Stats struct {
	Records     int
	Users       int
	FirstRound  int
	LatestRound int
}

// Store provides read/write access to the ledger.
type Store interface {
	// Slice returns the records whose round falls inside w, in ledger order.
	// The returned ledger is a copy and may be modified by the caller.
	Slice(ctx context.Context, w model.Window) (model.Ledger, error)

	// Replace swaps the whole ledger for l.
	Replace(ctx context.Context, l model.Ledger) error

	// Append adds records after the existing ones.
	Append(ctx context.Context, recs ...model.Record) error

	// Count returns the number of records held.
	Count(ctx context.Context) int

	// Stats returns record, user and round totals.
	Stats(ctx context.Context) Stats
}
