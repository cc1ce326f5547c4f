package device

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// Descriptor describes a device to open.
type Descriptor struct {
	// Name is the device name stamped on every event.
	Name string

	// Type selects the driver.
	Type string

	// Elements are element spec lines used to build the model.
	Elements []string

	// Options are driver-specific settings.
	Options map[string]string
}

// WithOverrides returns a copy of d whose options are overlaid with
// overrides. Neither input is modified.
func (d Descriptor) WithOverrides(overrides map[string]string) Descriptor {
	opts := make(map[string]string, len(d.Options)+len(overrides))
	for k, v := range d.Options {
		opts[k] = v
	}
	for k, v := range overrides {
		opts[k] = v
	}
	d.Options = opts
	d.Elements = append([]string(nil), d.Elements...)
	return d
}

// Option returns an option value or def if unset.
func (d Descriptor) Option(key, def string) string {
	if v, ok := d.Options[key]; ok {
		return v
	}
	return def
}

// BoolOption returns a boolean option or def if unset or unparsable.
func (d Descriptor) BoolOption(key string, def bool) bool {
	v, ok := d.Options[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Device is an open input device.
type Device interface {
	// Name returns the device name.
	Name() string

	// Session returns a unique identifier for this open instance.
	Session() string

	// Model returns the device's element model.
	Model() *Model

	// Start begins producing events. The channel is closed when the device
	// stops producing, either because ctx is done, the device is closed or
	// its source is exhausted. Start may be called once.
	Start(ctx context.Context) (<-chan *event.Event, error)

	// Close stops the device and releases its resources.
	Close() error
}

// Driver creates devices of one type.
type Driver interface {
	// Create opens a device. The returned device has its model populated.
	// Element spec errors are reported through warn and skipped.
	Create(desc Descriptor, warn func(error)) (Device, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(desc Descriptor, warn func(error)) (Device, error)

// Create implements Driver.
func (f DriverFunc) Create(desc Descriptor, warn func(error)) (Device, error) {
	return f(desc, warn)
}

// Registry maps driver type names to drivers.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds a driver under typeName.
func (r *Registry) Register(typeName string, d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[typeName]; exists {
		return fmt.Errorf("%w: %q", ErrDriverExists, typeName)
	}
	r.drivers[typeName] = d
	return nil
}

// Types returns the registered driver names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create opens a device using the driver registered for desc.Type, with
// overrides layered over desc.Options.
func (r *Registry) Create(desc Descriptor, overrides map[string]string, warn func(error)) (Device, error) {
	r.mu.RLock()
	d, ok := r.drivers[desc.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, desc.Type)
	}
	if warn == nil {
		warn = func(error) {}
	}

	dev, err := d.Create(desc.WithOverrides(overrides), warn)
	if err != nil {
		return nil, fmt.Errorf("creating device %q (%s): %w", desc.Name, desc.Type, err)
	}
	return dev, nil
}

// Base provides the bookkeeping shared by device implementations.
// Drivers embed it and implement Start and Close.
type Base struct {
	name    string
	session string
	model   *Model
}

// NewBase builds the model for desc, reporting element errors through warn.
func NewBase(desc Descriptor, warn func(error)) Base {
	model, errs := ParseModel(desc.Elements)
	for _, err := range errs {
		if warn != nil {
			warn(fmt.Errorf("device %q: %w", desc.Name, err))
		}
	}
	return Base{
		name:    desc.Name,
		session: uuid.New().String(),
		model:   model,
	}
}

// Name implements Device.
func (b *Base) Name() string { return b.name }

// Session implements Device.
func (b *Base) Session() string { return b.session }

// Model implements Device.
func (b *Base) Model() *Model { return b.model }
