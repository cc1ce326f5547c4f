package filter

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// Status is a filter's verdict on an event.
type Status uint8

const (
	// Continue passes the event to the next matching entry.
	Continue Status = iota
	// Restart rescans the chain from the head.
	Restart
	// Discard releases the event.
	Discard
	// Deliver skips the remaining entries.
	Deliver
	// Error aborts processing.
	Error
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Restart:
		return "restart"
	case Discard:
		return "discard"
	case Deliver:
		return "deliver"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Errors reported by chain processing.
var (
	// ErrFilterFailed is reported when a filter returns Error without a cause.
	ErrFilterFailed = errors.New("filter failed")

	// ErrFilterPanic is reported when a filter panics.
	ErrFilterPanic = errors.New("filter panicked")

	// ErrRestartLimit is reported when one event restarts the chain too often.
	ErrRestartLimit = errors.New("filter restart limit exceeded")

	// ErrQueueOverflow is reported when decomposition synthesizes too many events.
	ErrQueueOverflow = errors.New("filter sub-event limit exceeded")

	// ErrUnknownType is returned when no filter factory is registered for a type.
	ErrUnknownType = errors.New("unknown filter type")

	// ErrBadOption is returned when a filter option is missing or malformed.
	ErrBadOption = errors.New("invalid filter option")
)

// ProcessError reports an aborted Process call. Nothing is released on
// abort; the caller owns every event referenced here.
type ProcessError struct {
	// Entry is the chain entry whose filter failed, or nil for limit errors.
	Entry *Entry

	// Event is the event being filtered when processing stopped.
	Event *event.Event

	// Delivered are events that had already finished filtering.
	Delivered []*event.Event

	// Pending are queued events that had not been processed yet.
	Pending []*event.Event

	// Err is the underlying cause.
	Err error
}

func (e *ProcessError) Error() string {
	if e.Entry != nil {
		return fmt.Sprintf("filter %s on %v: %v", e.Entry, e.Event, e.Err)
	}
	return fmt.Sprintf("filtering %v: %v", e.Event, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Events returns every event the error holds, in the order failing event,
// delivered, pending.
func (e *ProcessError) Events() []*event.Event {
	out := make([]*event.Event, 0, 1+len(e.Delivered)+len(e.Pending))
	if e.Event != nil {
		out = append(out, e.Event)
	}
	out = append(out, e.Delivered...)
	return append(out, e.Pending...)
}

// PanicError wraps a panic raised inside a filter.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("filter panic: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrFilterPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrFilterPanic
}

// invoke calls f, turning panics into Error results.
func invoke(f Filter, ev *event.Event) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = Error
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	status, err = f.Filter(ev)
	switch {
	case status > Error:
		return Error, fmt.Errorf("%w: invalid status %d", ErrFilterFailed, status)
	case err != nil:
		return Error, err
	case status == Error:
		return Error, ErrFilterFailed
	}
	return status, nil
}
