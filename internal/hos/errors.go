package hos

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// ValidationKind classifies an invalid argument.
type ValidationKind string

const (
	InvalidResolution ValidationKind = "invalid_resolution"
	InvertedInterval  ValidationKind = "inverted_interval"
	CrossDayEntry     ValidationKind = "cross_day_entry"
	EntryOutsideDay   ValidationKind = "entry_outside_day"
	InvalidWindow     ValidationKind = "invalid_window"
	UnknownStatus     ValidationKind = "unknown_status"
	NegativeHours     ValidationKind = "negative_hours"
)

// ValidationError reports a clearly invalid argument. Only the call that
// received it is aborted; gaps and overlaps are never reported this way.
type ValidationError struct {
	Kind ValidationKind
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Msg)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(kind ValidationKind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
