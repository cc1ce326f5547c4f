// Package playback provides a device that replays a scripted sequence of
// events. It is used for demos, tests and replaying recorded sessions.
//
// A script is YAML:
//
//	loop: false
//	events:
//	  - elem: button0
//	    state: true
//	  - elem: axis0
//	    value: 0.5
//	    delay: 20ms
//	  - elem: pos
//	    values: [0.1, -0.2]
//
// The content type of each step defaults to the type of the model element
// it names.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// TypeName is the driver type used in configuration.
const TypeName = "playback"

// Errors for playback scripts.
var (
	// ErrNoScript is returned when neither the file nor the events option is set.
	ErrNoScript = errors.New("playback needs a file or events option")

	// ErrInvalidStep is returned for a step that cannot become an event.
	ErrInvalidStep = errors.New("invalid playback step")
)

// Step is one scripted event.
type Step struct {
	// Elem names the element. Required.
	Elem string `yaml:"elem"`

	// Device overrides the device name stamped on the event.
	Device string `yaml:"device,omitempty"`

	// Type overrides the content type. Defaults to the model element's type.
	Type string `yaml:"type,omitempty"`

	State  bool      `yaml:"state,omitempty"`
	Value  float64   `yaml:"value,omitempty"`
	Values []float64 `yaml:"values,omitempty"`
	Code   int       `yaml:"code,omitempty"`

	// Index addresses a vector component. Nil means unaddressed.
	Index *int `yaml:"index,omitempty"`

	// Delay is waited before the event is emitted.
	Delay time.Duration `yaml:"delay,omitempty"`
}

// Script is a parsed playback script.
type Script struct {
	Loop   bool   `yaml:"loop"`
	Events []Step `yaml:"events"`
}

// ParseScript parses a YAML script. A bare sequence of steps is accepted
// as well as a document with loop and events keys.
func ParseScript(data []byte) (*Script, error) {
	var steps []Step
	if err := yaml.Unmarshal(data, &steps); err == nil {
		return &Script{Events: steps}, nil
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing playback script: %w", err)
	}
	return &s, nil
}

// Driver creates playback devices. Options:
//
//	file    path to a YAML script
//	events  inline YAML sequence of steps, used when file is unset
//	loop    replay forever (overrides the script's loop key)
type Driver struct{}

// Create implements device.Driver.
func (Driver) Create(desc device.Descriptor, warn func(error)) (device.Device, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case desc.Option("file", "") != "":
		if data, err = os.ReadFile(desc.Option("file", "")); err != nil {
			return nil, err
		}
	case desc.Option("events", "") != "":
		data = []byte(desc.Option("events", ""))
	default:
		return nil, ErrNoScript
	}

	script, err := ParseScript(data)
	if err != nil {
		return nil, err
	}
	if v, ok := desc.Options["loop"]; ok {
		loop, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("playback loop option: %w", err)
		}
		script.Loop = loop
	}

	d := &Device{
		Base:   device.NewBase(desc, warn),
		script: script,
		done:   make(chan struct{}),
	}

	// Validate every step up front so a bad script fails at open time.
	for i, step := range script.Events {
		ev, err := d.build(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		ev.Release()
	}
	return d, nil
}

// Device replays a script.
type Device struct {
	device.Base

	script *Script

	started   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// Start implements device.Device.
func (d *Device) Start(ctx context.Context) (<-chan *event.Event, error) {
	select {
	case <-d.done:
		return nil, device.ErrDeviceClosed
	default:
	}
	if !d.started.CompareAndSwap(false, true) {
		return nil, device.ErrAlreadyStarted
	}

	out := make(chan *event.Event)
	go d.run(ctx, out)
	return out, nil
}

func (d *Device) run(ctx context.Context, out chan<- *event.Event) {
	defer close(out)

	for {
		for _, step := range d.script.Events {
			if step.Delay > 0 && !d.sleep(ctx, step.Delay) {
				return
			}

			ev, err := d.build(step)
			if err != nil {
				// Steps were validated in Create.
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				ev.Release()
				return
			case <-d.done:
				ev.Release()
				return
			}
		}
		if !d.script.Loop || len(d.script.Events) == 0 {
			return
		}
	}
}

// sleep waits for delay and reports whether the device should keep going.
func (d *Device) sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-d.done:
		return false
	}
}

// build turns a step into an event.
func (d *Device) build(step Step) (*event.Event, error) {
	if step.Elem == "" {
		return nil, fmt.Errorf("%w: missing elem", ErrInvalidStep)
	}

	model, hasModel := d.Model().Element(step.Elem)

	var typ element.Type
	switch {
	case step.Type != "":
		t, err := element.ParseType(step.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		typ = t
	case hasModel:
		typ = model.Content.Type()
	default:
		return nil, fmt.Errorf("%w: element %q is not in the model and has no type", ErrInvalidStep, step.Elem)
	}

	var content element.Content
	switch typ {
	case element.Trigger:
		content = &element.TriggerContent{}
	case element.Switch:
		content = &element.SwitchContent{State: step.State}
	case element.Valuator:
		v := &element.ValuatorContent{Min: -1, Max: 1, Value: step.Value}
		if m, ok := modelContent[*element.ValuatorContent](model, hasModel); ok {
			v.Min, v.Max = m.Min, m.Max
		}
		content = v
	case element.Vector:
		var v *element.VectorContent
		if m, ok := modelContent[*element.VectorContent](model, hasModel); ok {
			v = m.Copy().(*element.VectorContent)
		} else {
			v = element.NewVector(len(step.Values))
		}
		if len(step.Values) != v.Size() {
			return nil, fmt.Errorf("%w: %s has %d components, step gives %d", ErrInvalidStep, step.Elem, v.Size(), len(step.Values))
		}
		copy(v.Value, step.Values)
		content = v
	case element.Keyboard:
		content = &element.KeyboardContent{Code: step.Code, State: step.State}
	}

	name := step.Device
	if name == "" {
		name = d.Name()
	}
	ev := event.New(name, step.Elem, content)
	if step.Index != nil {
		if *step.Index < event.NoIndex {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidStep, *step.Index)
		}
		ev.Index = *step.Index
	}
	return ev, nil
}

// modelContent returns the model element's content when it has type T.
func modelContent[T element.Content](e *element.Element, ok bool) (T, bool) {
	var zero T
	if !ok {
		return zero, false
	}
	c, ok := e.Content.(T)
	return c, ok
}

// Close implements device.Device.
func (d *Device) Close() error {
	d.closeOnce.Do(func() { close(d.done) })
	return nil
}
