package event

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
)

// NoIndex marks an event or spec that is not addressed to a vector component.
const NoIndex = -1

// Event is a single input transition.
type Event struct {
	// Device is the name of the producing device.
	Device string

	// Elem is the element name. It may be empty, in which case specs match
	// it by content type name.
	Elem string

	// Index addresses a vector component, or NoIndex.
	Index int

	// Timestamp is when the producer observed the input.
	Timestamp time.Time

	// Content is the typed payload. The event owns it.
	Content element.Content

	released  atomic.Bool
	onRelease func(*Event)
}

// New creates an event stamped with the current time and no index.
func New(device, elem string, content element.Content) *Event {
	return &Event{
		Device:    device,
		Elem:      elem,
		Index:     NoIndex,
		Timestamp: time.Now(),
		Content:   content,
	}
}

// Type returns the content type. Events without content report Trigger.
func (e *Event) Type() element.Type {
	if e.Content == nil {
		return element.Trigger
	}
	return e.Content.Type()
}

// Clone returns a deep copy of e. The release hook is not copied.
func (e *Event) Clone() *Event {
	return &Event{
		Device:    e.Device,
		Elem:      e.Elem,
		Index:     e.Index,
		Timestamp: e.Timestamp,
		Content:   element.CopyContent(e.Content),
	}
}

// OnRelease registers fn to run when the event is released. It replaces any
// previously registered hook.
func (e *Event) OnRelease(fn func(*Event)) {
	e.onRelease = fn
}

// Release ends the event's journey through the pipeline.
// Calling Release twice panics with ErrReleasedTwice.
func (e *Event) Release() {
	if !e.released.CompareAndSwap(false, true) {
		panic(ErrReleasedTwice)
	}
	if e.onRelease != nil {
		e.onRelease(e)
	}
}

// Released reports whether Release has been called.
func (e *Event) Released() bool {
	return e.released.Load()
}

// String renders the event as "device.elem[index] content".
func (e *Event) String() string {
	var sb strings.Builder
	sb.WriteString(e.Device)
	sb.WriteByte('.')
	if e.Elem == "" {
		sb.WriteString("<" + e.Type().String() + ">")
	} else {
		sb.WriteString(e.Elem)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&sb, "[%d]", e.Index)
	}
	sb.WriteByte(' ')
	sb.WriteString(element.Format(e.Content))
	return sb.String()
}
