package ledgerfile

import "errors"

// Sentinel kinds for ledger file errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported ledger file type")
	ErrEmpty             = errors.New("ledger file is empty")
	ErrMissingColumn     = errors.New("ledger file missing required column")
	ErrMalformedRow      = errors.New("malformed ledger row")
)
