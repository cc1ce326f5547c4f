// Package router connects devices to the filter chain, the controllers and
// the application.
//
// Each device pump calls Dispatch from its own goroutine. Dispatch holds
// the frame interlock in shared mode while it applies the event to the
// device model, filters it and routes the survivors. Reconfigure takes the
// interlock exclusively, so a new chain or controller set is never swapped
// in while an event is in flight.
package router

import (
	"errors"
	"io"
	"time"

	"github.com/mpconte/VR-Projects-sub003/internal/controller"
	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/filter"
	"github.com/mpconte/VR-Projects-sub003/internal/interlock"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
	"github.com/mpconte/VR-Projects-sub003/internal/metrics"
)

// Sink receives the events no controller consumed. Deliver takes ownership
// of ev and must release it when done.
type Sink interface {
	Deliver(ev *event.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev *event.Event)

// Deliver implements Sink.
func (f SinkFunc) Deliver(ev *event.Event) {
	f(ev)
}

// ReleaseSink releases every event it receives.
var ReleaseSink Sink = SinkFunc(func(ev *event.Event) { ev.Release() })

// Config configures a Router.
type Config struct {
	// Frame is the interlock shared with the exclusive side. A new one is
	// created when nil.
	Frame *interlock.Frame

	// Chain filters events. A nil chain passes every event through.
	Chain *filter.Chain

	// Controllers routes filtered events. A nil registry leaves every
	// event unhandled.
	Controllers *controller.Registry

	// Sink receives unhandled events. Defaults to ReleaseSink.
	Sink Sink

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Router is the event pipeline.
type Router struct {
	frame *interlock.Frame
	sink  Sink

	// chain and controllers are replaced only under the exclusive lock.
	chain       *filter.Chain
	controllers *controller.Registry

	logger  *logging.Logger
	metrics *metrics.Metrics
}

// New creates a router.
func New(cfg Config) *Router {
	if cfg.Frame == nil {
		cfg.Frame = interlock.New()
	}
	if cfg.Sink == nil {
		cfg.Sink = ReleaseSink
	}
	return &Router{
		frame:       cfg.Frame,
		sink:        cfg.Sink,
		chain:       cfg.Chain,
		controllers: cfg.Controllers,
		logger:      logging.OrDefault(cfg.Logger).WithComponent("router"),
		metrics:     cfg.Metrics,
	}
}

// Frame returns the router's interlock.
func (r *Router) Frame() *interlock.Frame {
	return r.frame
}

// Dispatch applies ev to model, filters it and routes every surviving
// event. It implements device.Dispatcher and takes ownership of ev.
//
// A filter error aborts the event and is returned after every event the
// chain still held has been released. Controller errors release the
// failing event; routing of the remaining events continues and the errors
// are returned joined.
func (r *Router) Dispatch(model *device.Model, ev *event.Event) error {
	if ev == nil {
		return nil
	}
	start := time.Now()
	defer func() { r.metrics.ObserveDispatch(time.Since(start)) }()

	r.frame.LockShared()
	defer r.frame.UnlockShared()

	r.metrics.RecordEvent(ev)
	model.ApplyEvent(ev)

	out := []*event.Event{ev}
	if r.chain != nil {
		var err error
		if out, err = r.chain.Process(ev); err != nil {
			r.metrics.RecordProcessError()
			var perr *filter.ProcessError
			if errors.As(err, &perr) {
				releaseAll(perr.Events())
			}
			return err
		}
	}

	var errs []error
	for _, e := range out {
		if err := r.route(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// route hands one filtered event to the controllers, then to the sink.
func (r *Router) route(ev *event.Event) error {
	if r.controllers == nil {
		r.deliver(ev)
		return nil
	}

	status, err := r.controllers.RouteEvent(ev)
	r.metrics.RecordRoute(status)
	switch status {
	case controller.Consumed:
	case controller.Failed:
		r.logger.Warn("routing %v: %v", ev, err)
		ev.Release()
		return err
	default:
		r.deliver(ev)
	}
	return nil
}

func (r *Router) deliver(ev *event.Event) {
	r.metrics.RecordDelivered()
	r.sink.Deliver(ev)
}

// releaseAll releases each event not already released.
func releaseAll(events []*event.Event) {
	for _, ev := range events {
		if ev != nil && !ev.Released() {
			ev.Release()
		}
	}
}

// Exclusive runs fn while no event is being dispatched.
func (r *Router) Exclusive(fn func()) {
	r.frame.Exclusive(fn)
}

// Reconfigure swaps in a new chain and controller registry while no event
// is in flight. The previous registry is closed, as is every previous
// filter that implements io.Closer. A nil argument keeps the current one.
func (r *Router) Reconfigure(chain *filter.Chain, controllers *controller.Registry) {
	var (
		oldChain *filter.Chain
		oldCtl   *controller.Registry
	)
	r.frame.Exclusive(func() {
		if chain != nil {
			oldChain, r.chain = r.chain, chain
		}
		if controllers != nil {
			oldCtl, r.controllers = r.controllers, controllers
		}
	})

	if oldChain != nil && oldChain != chain {
		CloseFilters(oldChain)
	}
	if oldCtl != nil && oldCtl != controllers {
		oldCtl.Close()
	}
	r.logger.Info("reconfigured")
}

// Close closes the current chain's filters and controllers.
func (r *Router) Close() {
	var (
		chain *filter.Chain
		ctl   *controller.Registry
	)
	r.frame.Exclusive(func() {
		chain, r.chain = r.chain, nil
		ctl, r.controllers = r.controllers, nil
	})
	if chain != nil {
		CloseFilters(chain)
	}
	if ctl != nil {
		ctl.Close()
	}
}

// CloseFilters closes every filter in chain that implements io.Closer.
func CloseFilters(chain *filter.Chain) {
	for _, entry := range chain.Entries() {
		CloseFilter(entry.Filter)
	}
}

// CloseFilter closes f if it implements io.Closer.
func CloseFilter(f filter.Filter) {
	if c, ok := f.(io.Closer); ok {
		_ = c.Close()
	}
}
