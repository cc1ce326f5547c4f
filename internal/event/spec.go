package event

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
)

// Wildcard matches any device or element name.
const Wildcard = "*"

// Spec is a wildcard pattern over device, element and vector index.
// A Spec is immutable once parsed.
type Spec struct {
	Device string
	Elem   string
	Index  int
}

// AnySpec matches every event.
var AnySpec = Spec{Device: Wildcard, Elem: Wildcard, Index: NoIndex}

// ParseSpec parses the dotted form "device.elem.index". Omitted trailing
// segments and empty segments are wildcards; an index of "*" or "-1" is
// unconstrained.
func ParseSpec(s string) (Spec, error) {
	spec := AnySpec
	s = strings.TrimSpace(s)
	if s == "" {
		return spec, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Spec{}, fmt.Errorf("%w: %q has more than three segments", ErrInvalidSpec, s)
	}

	if parts[0] != "" {
		spec.Device = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		spec.Elem = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" && parts[2] != Wildcard {
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < NoIndex {
			return Spec{}, fmt.Errorf("%w: bad index %q in %q", ErrInvalidSpec, parts[2], s)
		}
		spec.Index = idx
	}
	return spec, nil
}

// MustParseSpec is like ParseSpec but panics on error.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// String renders the spec in dotted form.
func (s Spec) String() string {
	dev, elem := s.Device, s.Elem
	if dev == "" {
		dev = Wildcard
	}
	if elem == "" {
		elem = Wildcard
	}
	if s.Index < 0 {
		return dev + "." + elem
	}
	return dev + "." + elem + "." + strconv.Itoa(s.Index)
}

// Indexed reports whether the spec addresses a single vector component.
func (s Spec) Indexed() bool {
	return s.Index >= 0
}

// Matches reports whether ev is selected by spec. It never panics, even for
// nil or partially filled events.
//
// The element segment matches either the event's element name or, for
// events without a matching name, the canonical type name of the content
// ("trigger", "switch", "valuator", "vector", "keyboard"). A spec index
// only matches vector events with more than Index components.
func Matches(ev *Event, spec Spec) bool {
	if ev == nil {
		return false
	}

	if spec.Device != Wildcard && spec.Device != "" && ev.Device != spec.Device {
		return false
	}

	// A type name in the elem segment matches any element of that type,
	// named or not.
	if spec.Elem != Wildcard && spec.Elem != "" {
		if ev.Elem != spec.Elem {
			if ev.Content == nil || spec.Elem != ev.Content.Type().String() {
				return false
			}
		}
	}

	if spec.Index >= 0 {
		v, ok := ev.Content.(*element.VectorContent)
		if !ok || v == nil || spec.Index >= v.Size() {
			return false
		}
	}

	return true
}

// Matches is a method form of the package-level Matches.
func (s Spec) Matches(ev *Event) bool {
	return Matches(ev, s)
}
