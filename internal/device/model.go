package device

import (
	"fmt"
	"sort"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// Model maps element names to the device's current element state.
type Model struct {
	elems map[string]*element.Element
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{elems: make(map[string]*element.Element)}
}

// ParseModel builds a model from element spec lines. Lines that fail to
// parse, and duplicate names, are reported and skipped.
func ParseModel(lines []string) (*Model, []error) {
	m := NewModel()
	elems, errs := element.ParseList(lines)
	for _, e := range elems {
		if err := m.Add(e); err != nil {
			errs = append(errs, err)
		}
	}
	return m, errs
}

// Add inserts an element. Names must be unique.
func (m *Model) Add(e *element.Element) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("%w: element has no name", ErrInvalidElement)
	}
	if _, exists := m.elems[e.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateElement, e.Name)
	}
	m.elems[e.Name] = e
	return nil
}

// Element returns the named element.
func (m *Model) Element(name string) (*element.Element, bool) {
	e, ok := m.elems[name]
	return e, ok
}

// Len returns the number of elements.
func (m *Model) Len() int {
	return len(m.elems)
}

// Names returns the element names in sorted order.
func (m *Model) Names() []string {
	names := make([]string, 0, len(m.elems))
	for name := range m.elems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyEvent copies the event's state into the matching element.
//
// Events for unknown elements, or whose content type differs from the
// element's, are ignored. Vectors copy the components both sides have.
// The event is neither modified nor released.
func (m *Model) ApplyEvent(ev *event.Event) {
	if m == nil || ev == nil || ev.Content == nil {
		return
	}
	e, ok := m.elems[ev.Elem]
	if !ok || e.Content == nil || e.Content.Type() != ev.Content.Type() {
		return
	}

	switch dst := e.Content.(type) {
	case *element.SwitchContent:
		dst.State = ev.Content.(*element.SwitchContent).State
	case *element.ValuatorContent:
		src := ev.Content.(*element.ValuatorContent)
		dst.Value = src.Value
	case *element.VectorContent:
		src := ev.Content.(*element.VectorContent)
		n := min(src.Size(), dst.Size())
		copy(dst.Value[:n], src.Value[:n])
	case *element.KeyboardContent:
		src := ev.Content.(*element.KeyboardContent)
		dst.Code = src.Code
		dst.State = src.State
	}
}

// Snapshot returns a deep copy of every element's content, keyed by name.
func (m *Model) Snapshot() map[string]element.Content {
	out := make(map[string]element.Content, len(m.elems))
	for name, e := range m.elems {
		out[name] = element.CopyContent(e.Content)
	}
	return out
}
