package filter

import (
	"math"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// Clamp limits valuator values, and every vector component, to [Min, Max].
type Clamp struct {
	Min float64
	Max float64
}

// Filter implements Filter.
func (f Clamp) Filter(ev *event.Event) (Status, error) {
	mapValues(ev, func(v float64) float64 {
		return math.Max(f.Min, math.Min(f.Max, v))
	})
	return Continue, nil
}

// Scale applies value*Scale + Offset.
type Scale struct {
	Scale  float64
	Offset float64
}

// Filter implements Filter.
func (f Scale) Filter(ev *event.Event) (Status, error) {
	mapValues(ev, func(v float64) float64 {
		return v*f.Scale + f.Offset
	})
	return Continue, nil
}

// Invert negates valuators and vector components and flips switches.
type Invert struct{}

// Filter implements Filter.
func (Invert) Filter(ev *event.Event) (Status, error) {
	if sw, ok := ev.Content.(*element.SwitchContent); ok {
		sw.State = !sw.State
		return Continue, nil
	}
	mapValues(ev, func(v float64) float64 { return -v })
	return Continue, nil
}

// Deadzone zeroes values whose magnitude is below Threshold.
type Deadzone struct {
	Threshold float64
}

// Filter implements Filter.
func (f Deadzone) Filter(ev *event.Event) (Status, error) {
	mapValues(ev, func(v float64) float64 {
		if math.Abs(v) < f.Threshold {
			return 0
		}
		return v
	})
	return Continue, nil
}

// Remap renames the event's device and/or element and restarts the chain
// so entries for the new name see it. Empty fields are left alone.
// Vector sub-events are not restarted: once renamed they are requeued for a
// full pass anyway.
type Remap struct {
	Device string
	Elem   string
}

// Filter implements Filter.
func (f Remap) Filter(ev *event.Event) (Status, error) {
	changed := false
	if f.Device != "" && ev.Device != f.Device {
		ev.Device = f.Device
		changed = true
	}
	if f.Elem != "" && ev.Elem != f.Elem {
		ev.Elem = f.Elem
		changed = true
	}
	if changed && ev.Index < 0 {
		return Restart, nil
	}
	return Continue, nil
}

// Threshold turns a valuator into a switch that is on when the value is at
// least Level.
type Threshold struct {
	Level float64
}

// Filter implements Filter.
func (f Threshold) Filter(ev *event.Event) (Status, error) {
	if v, ok := ev.Content.(*element.ValuatorContent); ok {
		ev.Content = &element.SwitchContent{State: v.Value >= f.Level}
	}
	return Continue, nil
}

// Constant returns the same status for every event.
type Constant Status

// Filter implements Filter.
func (f Constant) Filter(*event.Event) (Status, error) {
	return Status(f), nil
}

// Log writes every matching event to a logger and continues.
type Log struct {
	Logger *logging.Logger
	Level  logging.Level
}

// Filter implements Filter.
func (f Log) Filter(ev *event.Event) (Status, error) {
	logging.OrDefault(f.Logger).Log(f.Level, "event %v", ev)
	return Continue, nil
}

func mapValues(ev *event.Event, fn func(float64) float64) {
	switch c := ev.Content.(type) {
	case *element.ValuatorContent:
		c.Value = fn(c.Value)
	case *element.VectorContent:
		for i := range c.Value {
			c.Value[i] = fn(c.Value[i])
		}
	}
}
