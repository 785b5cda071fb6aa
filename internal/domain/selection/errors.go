package selection

import "errors"

// Sentinel error kinds for this package.
var (
	ErrModelNotTrained = errors.New("model not trained")
)
