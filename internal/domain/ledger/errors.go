package ledger

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidComparison = errors.New("invalid comparison")
)
