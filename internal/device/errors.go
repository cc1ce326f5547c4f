package device

import "errors"

// Errors for device models and drivers.
var (
	// ErrInvalidElement is returned when an element cannot be added to a model.
	ErrInvalidElement = errors.New("invalid element")

	// ErrDuplicateElement is returned when a model already has an element of that name.
	ErrDuplicateElement = errors.New("duplicate element")

	// ErrUnknownDriver is returned when no driver is registered for a type.
	ErrUnknownDriver = errors.New("unknown device driver")

	// ErrDriverExists is returned when a driver type is registered twice.
	ErrDriverExists = errors.New("device driver already registered")

	// ErrDeviceClosed is returned by operations on a closed device.
	ErrDeviceClosed = errors.New("device closed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("device already started")
)
