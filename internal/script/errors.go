package script

import "errors"

// Errors for script loading and execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoSource is returned when neither inline source nor a file is given.
	ErrNoSource = errors.New("script needs source or file")

	// ErrNoFunction is returned when the entry point is not a Lua function.
	ErrNoFunction = errors.New("script function not defined")

	// ErrBadResult is returned when a script returns a value of the wrong kind.
	ErrBadResult = errors.New("invalid script result")
)
