package surfboardgwp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotANumber is returned when an input field cannot be read as a finite number.
	ErrNotANumber = errors.New("not a finite number")
	// ErrNegative is returned when a quantity is below zero.
	ErrNegative = errors.New("must not be negative")
	// ErrOutOfRange is returned when a percentage is outside [0, 100].
	ErrOutOfRange = errors.New("must be between 0 and 100")
	// ErrInvalidShares is returned when transport mode shares do not sum to 100.
	ErrInvalidShares = errors.New("transport mode shares must sum to 100")
	// ErrUnknownMode is returned for a transport mode without emission factor.
	ErrUnknownMode = errors.New("unknown transport mode")
	// ErrOverflow is returned when a contribution or a stage total is not finite.
	ErrOverflow = errors.New("contribution is not a finite number")
	// ErrDuplicateMode is returned when two keys of a leg name the same transport mode.
	ErrDuplicateMode = errors.New("duplicate transport mode")
)

// InputErr wraps an error on a single user input field.
type InputErr struct {
	Field string
	Raw   string
	Err   error
}

func (inputErr *InputErr) Error() string {
	return fmt.Sprintf("invalid input (field: %s, value: %q): %s", inputErr.Field, inputErr.Raw, inputErr.Err.Error())
}

func (inputErr *InputErr) Unwrap() error {
	return inputErr.Err
}

// Warning is a recoverable input problem. The offending value has been
// replaced by Substitute and the evaluation went on.
type Warning struct {
	Field      string
	Raw        string
	Substitute float64
	Err        error
}

// NewWarning builds a warning for field, substituting raw with substitute.
func NewWarning(field, raw string, substitute float64, err error) Warning {
	return Warning{
		Field:      field,
		Raw:        raw,
		Substitute: substitute,
		Err:        &InputErr{Field: field, Raw: raw, Err: err},
	}
}

// Message is the text shown to the user.
func (w Warning) Message() string {
	var inputErr *InputErr
	if errors.As(w.Err, &inputErr) && errors.Is(inputErr.Err, ErrInvalidShares) {
		return fmt.Sprintf("%s: %s, transport total not computed", w.Field, inputErr.Err.Error())
	}
	if errors.As(w.Err, &inputErr) {
		return fmt.Sprintf("%s: %q %s, using %g", w.Field, w.Raw, inputErr.Err.Error(), w.Substitute)
	}
	return fmt.Sprintf("%s: %v", w.Field, w.Err)
}
