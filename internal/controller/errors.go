package controller

import (
	"errors"
	"fmt"
)

// Errors for controller management and routing.
var (
	// ErrUnknownDriver is returned when no driver is registered for a type.
	ErrUnknownDriver = errors.New("unknown controller driver")

	// ErrDriverExists is returned when a driver type is registered twice.
	ErrDriverExists = errors.New("controller driver already registered")

	// ErrInitFailed wraps a driver's Init error.
	ErrInitFailed = errors.New("controller init failed")

	// ErrNotRegistered is returned when destroying a controller the registry does not hold.
	ErrNotRegistered = errors.New("controller not registered")

	// ErrDriverFailed is reported when a driver's Event returns a negative code.
	ErrDriverFailed = errors.New("controller driver error")

	// ErrBadOptions is returned when controller options are not valid JSON.
	ErrBadOptions = errors.New("invalid controller options")
)

// RouteError reports a driver failure during RouteEvent.
type RouteError struct {
	// Controller is the controller whose driver failed.
	Controller *Controller

	// Code is the negative code returned by the driver, or 0 for a panic.
	Code int

	// Err is the underlying error.
	Err error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("controller %s (%s): code %d: %v", e.Controller.ID, e.Controller.Type, e.Code, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}
