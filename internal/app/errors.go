package app

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to callers. Handlers map these to HTTP status codes;
// everything else is a 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrSlotTaken  = errors.New("slot no longer available")
)

func validationErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
