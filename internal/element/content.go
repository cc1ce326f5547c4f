package element

import (
	"fmt"
	"strings"
)

// Type identifies the variant of a Content value.
type Type uint8

const (
	// Trigger carries no payload.
	Trigger Type = iota
	// Switch carries a boolean state.
	Switch
	// Valuator carries a ranged scalar.
	Valuator
	// Vector carries a fixed-size array of ranged scalars.
	Vector
	// Keyboard carries a key code and state.
	Keyboard
)

var typeNames = [...]string{
	Trigger:  "trigger",
	Switch:   "switch",
	Valuator: "valuator",
	Vector:   "vector",
	Keyboard: "keyboard",
}

// String returns the canonical type name used in element specs and
// event spec matching.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType parses a canonical type name.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Content is the typed value held by an element or carried by an event.
// The set of implementations is closed; use a type switch on the pointer
// types (*TriggerContent, *SwitchContent, ...).
type Content interface {
	// Type returns the variant tag.
	Type() Type

	// Copy returns a deep copy. Vector arrays are freshly allocated.
	Copy() Content

	content()
}

// TriggerContent has no payload.
type TriggerContent struct{}

// SwitchContent is a boolean input.
type SwitchContent struct {
	State bool
}

// ValuatorContent is a scalar input within [Min, Max].
type ValuatorContent struct {
	Min   float64
	Max   float64
	Value float64
}

// VectorContent is a fixed-size array of ranged scalars. Min, Max and Value
// always have the same length; use NewVector to build one.
type VectorContent struct {
	Min   []float64
	Max   []float64
	Value []float64
}

// KeyboardContent is a key transition.
type KeyboardContent struct {
	Code  int
	State bool
}

// NewVector returns a vector of the given size with zeroed components.
// A negative size is treated as zero.
func NewVector(size int) *VectorContent {
	if size < 0 {
		size = 0
	}
	return &VectorContent{
		Min:   make([]float64, size),
		Max:   make([]float64, size),
		Value: make([]float64, size),
	}
}

func (*TriggerContent) Type() Type  { return Trigger }
func (*SwitchContent) Type() Type   { return Switch }
func (*ValuatorContent) Type() Type { return Valuator }
func (*VectorContent) Type() Type   { return Vector }
func (*KeyboardContent) Type() Type { return Keyboard }

func (*TriggerContent) content()  {}
func (*SwitchContent) content()   {}
func (*ValuatorContent) content() {}
func (*VectorContent) content()   {}
func (*KeyboardContent) content() {}

// Copy implements Content.
func (*TriggerContent) Copy() Content { return &TriggerContent{} }

// Copy implements Content.
func (c *SwitchContent) Copy() Content {
	cp := *c
	return &cp
}

// Copy implements Content.
func (c *ValuatorContent) Copy() Content {
	cp := *c
	return &cp
}

// Copy implements Content.
func (c *KeyboardContent) Copy() Content {
	cp := *c
	return &cp
}

// Copy implements Content.
func (c *VectorContent) Copy() Content {
	v := NewVector(c.Size())
	copy(v.Min, c.Min)
	copy(v.Max, c.Max)
	copy(v.Value, c.Value)
	return v
}

// Size returns the number of components.
func (c *VectorContent) Size() int {
	return len(c.Value)
}

// Component returns component i as a valuator.
// The second result is false if i is out of range.
func (c *VectorContent) Component(i int) (*ValuatorContent, bool) {
	if i < 0 || i >= c.Size() {
		return nil, false
	}
	return &ValuatorContent{Min: c.Min[i], Max: c.Max[i], Value: c.Value[i]}, true
}

// SetComponent stores v into component i. Out-of-range indices are ignored.
func (c *VectorContent) SetComponent(i int, v *ValuatorContent) {
	if i < 0 || i >= c.Size() || v == nil {
		return
	}
	c.Min[i] = v.Min
	c.Max[i] = v.Max
	c.Value[i] = v.Value
}

// CopyContent deep-copies c. It returns nil for a nil content.
func CopyContent(c Content) Content {
	if c == nil {
		return nil
	}
	return c.Copy()
}

// Format renders content in a compact human-readable form, e.g.
// "valuator{-1 1 0.5}".
func Format(c Content) string {
	switch v := c.(type) {
	case nil:
		return "<nil>"
	case *TriggerContent:
		return "trigger"
	case *SwitchContent:
		return fmt.Sprintf("switch{%t}", v.State)
	case *ValuatorContent:
		return fmt.Sprintf("valuator{%g %g %g}", v.Min, v.Max, v.Value)
	case *VectorContent:
		var sb strings.Builder
		fmt.Fprintf(&sb, "vector{%d", v.Size())
		for i := range v.Value {
			fmt.Fprintf(&sb, " [%g %g %g]", v.Min[i], v.Max[i], v.Value[i])
		}
		sb.WriteString("}")
		return sb.String()
	case *KeyboardContent:
		return fmt.Sprintf("keyboard{%d %t}", v.Code, v.State)
	default:
		return "unknown"
	}
}
