package bradleyterry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for this package.
var (
	ErrInsufficientData    = errors.New("insufficient comparison data")
	ErrUnidentifiableModel = errors.New("unidentifiable model")
	ErrInvalidTally        = errors.New("invalid tally")
	ErrDegenerateFit       = errors.New("degenerate fit")
)

// UnidentifiableModelError reports the connected components of a comparison
// graph that cannot be placed on one scale.
type UnidentifiableModelError struct {
	Components [][]string
}

func (e *UnidentifiableModelError) Error() string {
	parts := make([]string, len(e.Components))
	for i, c := range e.Components {
		parts[i] = "{" + strings.Join(c, ", ") + "}"
	}
	return fmt.Sprintf("%s: comparison graph has %d disconnected components: %s",
		ErrUnidentifiableModel, len(e.Components), strings.Join(parts, " "))
}

// Unwrap lets errors.Is match ErrUnidentifiableModel.
func (e *UnidentifiableModelError) Unwrap() error {
	return ErrUnidentifiableModel
}
