package controller

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// Desc describes a controller to create.
type Desc struct {
	// Type selects the driver.
	Type string

	// Input is the device name the controller listens to, or "*".
	Input string

	// Output names what the controller drives, or "*".
	Output string

	// Options is a JSON object passed to the driver's Init.
	Options string
}

// Controller is a named input-to-output binding backed by a driver.
type Controller struct {
	// ID uniquely identifies the controller instance.
	ID string

	Type   string
	Input  string
	Output string

	// Options holds the parsed JSON options.
	Options gjson.Result

	// Data is reserved for the driver's per-controller state.
	Data any

	driver Driver
}

// Driver implements one controller type.
type Driver interface {
	// Init prepares c. A non-nil error aborts creation.
	Init(c *Controller, options string) error

	// Event handles ev. It returns 0 when consumed, >0 to decline and <0
	// on error. Event must not release ev.
	Event(c *Controller, ev *event.Event) int

	// Deinit releases c's resources.
	Deinit(c *Controller)
}

// RouteStatus is the outcome of RouteEvent.
type RouteStatus uint8

const (
	// Unhandled means no controller consumed the event; the caller keeps it.
	Unhandled RouteStatus = iota
	// Consumed means a controller handled the event and it was released.
	Consumed
	// Failed means a driver reported an error; the caller keeps the event.
	Failed
)

// String returns a string representation of the status.
func (s RouteStatus) String() string {
	switch s {
	case Unhandled:
		return "unhandled"
	case Consumed:
		return "consumed"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Registry holds controller drivers and live controllers.
type Registry struct {
	mu          sync.RWMutex
	drivers     map[string]Driver
	controllers []*Controller // newest first

	logger *logging.Logger
}

// NewRegistry creates an empty controller registry.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
		logger:  logging.OrDefault(logger).WithComponent("controller"),
	}
}

// RegisterDriver adds a driver under typeName.
func (r *Registry) RegisterDriver(typeName string, d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[typeName]; exists {
		return fmt.Errorf("%w: %q", ErrDriverExists, typeName)
	}
	r.drivers[typeName] = d
	return nil
}

// DriverTypes returns the registered driver names, sorted.
func (r *Registry) DriverTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds a controller from desc, initializes it with its driver and
// registers it. If Init fails nothing is registered.
func (r *Registry) Create(desc Desc) (*Controller, error) {
	r.mu.RLock()
	d, ok := r.drivers[desc.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, desc.Type)
	}

	opts := desc.Options
	if opts == "" {
		opts = "{}"
	}
	if !gjson.Valid(opts) {
		return nil, fmt.Errorf("%w: %s", ErrBadOptions, desc.Options)
	}

	c := &Controller{
		ID:      uuid.New().String(),
		Type:    desc.Type,
		Input:   desc.Input,
		Output:  desc.Output,
		Options: gjson.Parse(opts),
		driver:  d,
	}

	if err := d.Init(c, opts); err != nil {
		return nil, fmt.Errorf("%w: %s %s->%s: %w", ErrInitFailed, desc.Type, desc.Input, desc.Output, err)
	}

	r.mu.Lock()
	r.controllers = append([]*Controller{c}, r.controllers...)
	r.mu.Unlock()

	r.logger.Debug("created %s controller %s -> %s (%s)", c.Type, c.Input, c.Output, c.ID)
	return c, nil
}

// Destroy unregisters c and calls its driver's Deinit.
func (r *Registry) Destroy(c *Controller) error {
	r.mu.Lock()
	idx := -1
	for i, existing := range r.controllers {
		if existing == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotRegistered
	}
	r.controllers = append(r.controllers[:idx:idx], r.controllers[idx+1:]...)
	r.mu.Unlock()

	c.driver.Deinit(c)
	return nil
}

// Close destroys every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	controllers := r.controllers
	r.controllers = nil
	r.mu.Unlock()

	for _, c := range controllers {
		c.driver.Deinit(c)
	}
}

// Controllers returns the registered controllers, newest first.
func (r *Registry) Controllers() []*Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Controller, len(r.controllers))
	copy(out, r.controllers)
	return out
}

// Find returns the newest controller whose input and output match. Either
// side of each comparison may be "*".
func (r *Registry) Find(input, output string) *Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.controllers {
		if nameMatch(c.Input, input) && nameMatch(c.Output, output) {
			return c
		}
	}
	return nil
}

// RouteEvent offers ev to each controller whose input matches ev.Device,
// newest first. On Consumed the event has been released; otherwise the
// caller still owns it.
func (r *Registry) RouteEvent(ev *event.Event) (RouteStatus, error) {
	if ev == nil {
		return Unhandled, nil
	}

	r.mu.RLock()
	controllers := r.controllers
	r.mu.RUnlock()

	for _, c := range controllers {
		if !nameMatch(c.Input, ev.Device) {
			continue
		}

		code, err := callEvent(c, ev)
		switch {
		case err != nil:
			return Failed, &RouteError{Controller: c, Code: code, Err: err}
		case code == 0:
			ev.Release()
			return Consumed, nil
		case code < 0:
			return Failed, &RouteError{Controller: c, Code: code, Err: ErrDriverFailed}
		}
	}
	return Unhandled, nil
}

// callEvent invokes the driver, converting a panic into an error.
func callEvent(c *Controller, ev *event.Event) (code int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			code = 0
			err = fmt.Errorf("%w: panic: %v", ErrDriverFailed, rec)
		}
	}()
	return c.driver.Event(c, ev), nil
}

// nameMatch reports whether two names match, with "*" on either side
// matching anything. Two empty names match.
func nameMatch(a, b string) bool {
	return a == event.Wildcard || b == event.Wildcard || a == b
}
