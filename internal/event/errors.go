package event

import "errors"

// Event errors.
var (
	// ErrReleasedTwice is the panic value raised when an event is released
	// more than once.
	ErrReleasedTwice = errors.New("event released twice")

	// ErrInvalidSpec is returned when a device spec string cannot be parsed.
	ErrInvalidSpec = errors.New("invalid device spec")
)
