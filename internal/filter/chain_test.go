package filter

import (
	"errors"
	"testing"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

func valuatorEvent(device, elem string, value float64) *event.Event {
	return event.New(device, elem, &element.ValuatorContent{Min: -2, Max: 2, Value: value})
}

func vectorEvent(device, elem string, values ...float64) *event.Event {
	v := element.NewVector(len(values))
	for i := range values {
		v.Min[i], v.Max[i], v.Value[i] = -1, 1, values[i]
	}
	return event.New(device, elem, v)
}

func mustAdd(t *testing.T, c *Chain, spec string, f Filter, where Where) {
	t.Helper()
	if _, err := c.AddFilter(spec, f, where); err != nil {
		t.Fatalf("AddFilter(%q) error = %v", spec, err)
	}
}

func values(ev *event.Event) []float64 {
	return ev.Content.(*element.VectorContent).Value
}

func TestProcessEmptyChainDelivers(t *testing.T) {
	c := NewChain()
	ev := valuatorEvent("joy1", "axis0", 0.5)

	out, err := c.Process(ev)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0] != ev {
		t.Fatalf("Process() = %v, want the input event", out)
	}
	if out, err := c.Process(nil); out != nil || err != nil {
		t.Errorf("Process(nil) = %v, %v", out, err)
	}
}

func TestProcessClampValuator(t *testing.T) {
	c := NewChain()
	mustAdd(t, c, "*.valuator", Clamp{Min: 0, Max: 1}, Tail)

	out, err := c.Process(valuatorEvent("joy1", "axis0", 1.5))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	if v := out[0].Content.(*element.ValuatorContent).Value; v != 1.0 {
		t.Errorf("value = %v, want 1.0", v)
	}
}

func TestProcessOrderHeadTail(t *testing.T) {
	c := NewChain()
	var order []string
	tag := func(name string) Filter {
		return Func(func(*event.Event) Status {
			order = append(order, name)
			return Continue
		})
	}
	mustAdd(t, c, "*", tag("b"), Tail)
	mustAdd(t, c, "*", tag("c"), Tail)
	mustAdd(t, c, "*", tag("a"), Head)
	mustAdd(t, c, "joy2", tag("skipped"), Tail)

	if _, err := c.Process(valuatorEvent("joy1", "axis0", 0)); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v, want [a b c]", order)
	}
	if c.Len() != 4 || len(c.Entries()) != 4 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestProcessDiscardReleases(t *testing.T) {
	c := NewChain()
	after := false
	mustAdd(t, c, "*", Constant(Discard), Tail)
	mustAdd(t, c, "*", Func(func(*event.Event) Status { after = true; return Continue }), Tail)

	ev := valuatorEvent("joy1", "axis0", 0)
	released := 0
	ev.OnRelease(func(*event.Event) { released++ })

	out, err := c.Process(ev)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("discarded event delivered: %v", out)
	}
	if released != 1 {
		t.Errorf("released %d times, want 1", released)
	}
	if after {
		t.Error("filter after discard was invoked")
	}
}

func TestProcessDeliverSkipsRemaining(t *testing.T) {
	c := NewChain()
	mustAdd(t, c, "*", Constant(Deliver), Tail)
	mustAdd(t, c, "*", Clamp{Min: 0, Max: 0}, Tail)

	ev := valuatorEvent("joy1", "axis0", 0.7)
	out, err := c.Process(ev)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Content.(*element.ValuatorContent).Value != 0.7 {
		t.Errorf("delivered event was filtered further: %v", out)
	}
	if ev.Released() {
		t.Error("delivered event released")
	}
}

func TestProcessRestartAfterRemap(t *testing.T) {
	c := NewChain()
	mustAdd(t, c, "joy1.throttle", Scale{Scale: 10}, Tail)
	mustAdd(t, c, "joy1.axis2", Remap{Elem: "throttle"}, Tail)

	out, err := c.Process(valuatorEvent("joy1", "axis2", 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d events", len(out))
	}
	if out[0].Elem != "throttle" {
		t.Errorf("elem = %q, want throttle", out[0].Elem)
	}
	if v := out[0].Content.(*element.ValuatorContent).Value; v != 5 {
		t.Errorf("value = %v, want 5 (scaled after restart)", v)
	}
}

func TestProcessRestartLimit(t *testing.T) {
	c := NewChain(WithMaxRestarts(3))
	calls := 0
	mustAdd(t, c, "*", Func(func(*event.Event) Status { calls++; return Restart }), Tail)

	ev := valuatorEvent("joy1", "axis0", 0)
	_, err := c.Process(ev)
	if !errors.Is(err, ErrRestartLimit) {
		t.Fatalf("Process() error = %v, want ErrRestartLimit", err)
	}
	if calls != 4 {
		t.Errorf("filter calls = %d, want 4", calls)
	}
	if ev.Released() {
		t.Error("event released on error")
	}
}

func TestProcessErrorReleasesNothing(t *testing.T) {
	c := NewChain()
	boom := errors.New("boom")
	mustAdd(t, c, "*", Func(func(ev *event.Event) Status { return Error }), Tail)

	ev := valuatorEvent("joy1", "axis0", 0)
	_, err := c.Process(ev)

	var pe *ProcessError
	if !errors.As(err, &pe) {
		t.Fatalf("Process() error = %v, want *ProcessError", err)
	}
	if pe.Event != ev || pe.Entry == nil {
		t.Errorf("ProcessError = %+v", pe)
	}
	if !errors.Is(err, ErrFilterFailed) {
		t.Errorf("error should wrap ErrFilterFailed: %v", err)
	}
	if ev.Released() {
		t.Error("event released on error")
	}

	c2 := NewChain()
	mustAdd(t, c2, "*", filterWithError{err: boom}, Tail)
	if _, err := c2.Process(valuatorEvent("joy1", "axis0", 0)); !errors.Is(err, boom) {
		t.Errorf("Process() error = %v, want boom", err)
	}
}

type filterWithError struct{ err error }

func (f filterWithError) Filter(*event.Event) (Status, error) { return Continue, f.err }

func TestProcessFilterPanic(t *testing.T) {
	c := NewChain()
	mustAdd(t, c, "*", Func(func(*event.Event) Status { panic("bad filter") }), Tail)

	_, err := c.Process(valuatorEvent("joy1", "axis0", 0))
	if !errors.Is(err, ErrFilterPanic) {
		t.Errorf("Process() error = %v, want ErrFilterPanic", err)
	}
}

func TestProcessInvalidStatus(t *testing.T) {
	c := NewChain()
	mustAdd(t, c, "*", Func(func(*event.Event) Status { return Status(77) }), Tail)

	if _, err := c.Process(valuatorEvent("joy1", "axis0", 0)); !errors.Is(err, ErrFilterFailed) {
		t.Errorf("Process() error = %v, want ErrFilterFailed", err)
	}
}

func TestProcessObserver(t *testing.T) {
	var seen []Status
	c := NewChain(WithObserver(func(_ *Entry, _ *event.Event, s Status) { seen = append(seen, s) }))
	mustAdd(t, c, "*", Invert{}, Tail)
	mustAdd(t, c, "*", Constant(Deliver), Tail)

	if _, err := c.Process(valuatorEvent("joy1", "axis0", 0)); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != Continue || seen[1] != Deliver {
		t.Errorf("observed %v", seen)
	}
}

func TestAddFilterErrors(t *testing.T) {
	c := NewChain()
	if _, err := c.AddFilter("a.b.c.d", Invert{}, Tail); !errors.Is(err, event.ErrInvalidSpec) {
		t.Errorf("AddFilter() error = %v, want ErrInvalidSpec", err)
	}
	if _, err := c.AddFilter("*", nil, Tail); !errors.Is(err, ErrBadOption) {
		t.Errorf("AddFilter(nil) error = %v, want ErrBadOption", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed adds", c.Len())
	}
}

func TestParseWhere(t *testing.T) {
	if w, err := ParseWhere("head"); err != nil || w != Head {
		t.Errorf("ParseWhere(head) = %v, %v", w, err)
	}
	if w, err := ParseWhere(""); err != nil || w != Tail {
		t.Errorf("ParseWhere(\"\") = %v, %v", w, err)
	}
	if _, err := ParseWhere("middle"); err == nil {
		t.Error("ParseWhere(middle) expected error")
	}
}

func TestStatusString(t *testing.T) {
	names := map[Status]string{
		Continue: "continue", Restart: "restart", Discard: "discard",
		Deliver: "deliver", Error: "error", Status(9): "unknown",
	}
	for s, want := range names {
		if s.String() != want {
			t.Errorf("Status(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
