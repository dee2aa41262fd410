package report

import "errors"

// Sentinel kinds for report errors. These allow errors.Is from callers.
var (
	ErrInvalidWindow     = errors.New("invalid round window")
	ErrInvalidUser       = errors.New("invalid user")
	ErrInvalidFraction   = errors.New("invalid participation fraction")
	ErrMissingDependency = errors.New("missing report dependency")
)
