package simulate

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is matched by every InvalidParameterError via errors.Is.
var ErrInvalidParameter = errors.New("simulate: invalid parameter")

// InvalidParameterError reports a missing or out-of-range simulation input.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("simulate: invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidParameter) match.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

func invalid(field, format string, args ...any) error {
	return &InvalidParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidParameter reports whether err was caused by bad simulation input.
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}
