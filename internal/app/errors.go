package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoDevices indicates that no configured device could be opened.
	ErrNoDevices = errors.New("no devices opened")

	// ErrInitialization indicates the pipeline could not be built.
	ErrInitialization = errors.New("initialization failed")

	// ErrReloadFailed indicates a configuration reload was rejected. The
	// previous configuration stays active.
	ErrReloadFailed = errors.New("reload failed")
)

// OperationError records the operation and target that failed.
type OperationError struct {
	Op     string // "filter", "controller", "device"
	Target string // entry label or device name
	Err    error
}

func (e *OperationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
