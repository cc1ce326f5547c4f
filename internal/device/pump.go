package device

import (
	"context"

	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// Dispatcher receives events from a device's producer goroutine.
type Dispatcher interface {
	// Dispatch applies ev to model and routes it through the pipeline.
	// It takes ownership of ev.
	Dispatch(model *Model, ev *event.Event) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(model *Model, ev *event.Event) error

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(model *Model, ev *event.Event) error {
	return f(model, ev)
}

// ErrorPolicy decides what happens after a dispatch error. Returning false
// stops the pump, dropping the device.
type ErrorPolicy func(dev Device, err error) bool

// Pump starts dev and forwards its events to d, in order, until the event
// channel closes, ctx is done, or onError returns false. It is the
// device's producer loop and should run in its own goroutine.
//
// Events still queued when the pump stops are released.
func Pump(ctx context.Context, dev Device, d Dispatcher, onError ErrorPolicy) error {
	events, err := dev.Start(ctx)
	if err != nil {
		return err
	}

	model := dev.Model()
	for {
		select {
		case <-ctx.Done():
			drain(events)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Device == "" {
				ev.Device = dev.Name()
			}
			if err := d.Dispatch(model, ev); err != nil {
				if onError == nil || !onError(dev, err) {
					drain(events)
					return err
				}
			}
		}
	}
}

func drain(events <-chan *event.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			ev.Release()
		default:
			return
		}
	}
}
