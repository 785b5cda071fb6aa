package ranking

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidScale = errors.New("invalid rating scale")
)
