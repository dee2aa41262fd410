package repository

import "errors"

// Sentinel kinds for ledger store errors.
var (
	ErrInvalidRecord = errors.New("invalid ledger record")
	ErrInvalidWindow = errors.New("invalid round window")
	ErrClosed        = errors.New("ledger store closed")
)
