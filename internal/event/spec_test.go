package event

import (
	"errors"
	"testing"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		input string
		want  Spec
	}{
		{"", AnySpec},
		{"*", AnySpec},
		{"joy1", Spec{Device: "joy1", Elem: Wildcard, Index: NoIndex}},
		{"joy1.axis0", Spec{Device: "joy1", Elem: "axis0", Index: NoIndex}},
		{"*.valuator", Spec{Device: Wildcard, Elem: "valuator", Index: NoIndex}},
		{"joy1.stick.1", Spec{Device: "joy1", Elem: "stick", Index: 1}},
		{"joy1.stick.*", Spec{Device: "joy1", Elem: "stick", Index: NoIndex}},
		{".button0", Spec{Device: Wildcard, Elem: "button0", Index: NoIndex}},
		{"joy1.stick.-1", Spec{Device: "joy1", Elem: "stick", Index: NoIndex}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSpec(tt.input)
			if err != nil {
				t.Fatalf("ParseSpec(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSpecErrors(t *testing.T) {
	for _, input := range []string{"a.b.c.d", "a.b.x", "a.b.-2"} {
		if _, err := ParseSpec(input); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("ParseSpec(%q) error = %v, want ErrInvalidSpec", input, err)
		}
	}
}

func TestSpecString(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{AnySpec, "*.*"},
		{MustParseSpec("joy1.axis0"), "joy1.axis0"},
		{MustParseSpec("joy1.stick.2"), "joy1.stick.2"},
		{Spec{Index: NoIndex}, "*.*"},
	}
	for _, tt := range tests {
		if got := tt.spec.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMatchesWildcardMatchesEverything(t *testing.T) {
	events := []*Event{
		New("joy1", "button0", &element.SwitchContent{}),
		New("mouse", "", &element.ValuatorContent{}),
		New("head", "pos", element.NewVector(3)),
		New("kbd", "key", &element.KeyboardContent{Code: 10}),
		New("", "", &element.TriggerContent{}),
		{Index: NoIndex},
	}
	for _, ev := range events {
		if !Matches(ev, AnySpec) {
			t.Errorf("AnySpec did not match %v", ev)
		}
	}
}

func TestMatches(t *testing.T) {
	axis := New("joy1", "axis0", &element.ValuatorContent{Min: -1, Max: 1})
	stick := New("joy1", "stick", element.NewVector(2))
	button := New("joy2", "button0", &element.SwitchContent{})
	unnamed := New("joy1", "", &element.ValuatorContent{Min: -1, Max: 1})

	tests := []struct {
		name string
		ev   *Event
		spec string
		want bool
	}{
		{"device match", axis, "joy1", true},
		{"device mismatch", button, "joy1", false},
		{"elem name", axis, "joy1.axis0", true},
		{"elem name mismatch", axis, "joy1.axis1", false},
		{"elem by type name", axis, "*.valuator", true},
		{"elem type name mismatch", button, "*.valuator", false},
		{"unnamed elem by type name", unnamed, "joy1.valuator", true},
		{"unnamed elem by element name", unnamed, "joy1.axis0", false},
		{"vector by type", stick, "*.vector", true},
		{"index in range", stick, "joy1.stick.1", true},
		{"index out of range", stick, "joy1.stick.2", false},
		{"index on non-vector", axis, "joy1.axis0.0", false},
		{"nil event", nil, "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.ev, MustParseSpec(tt.spec)); got != tt.want {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.ev, tt.spec, got, tt.want)
			}
		})
	}
}

func TestMatchesVectorIndexBounds(t *testing.T) {
	for size := 0; size < 4; size++ {
		ev := New("d", "v", element.NewVector(size))
		for k := 0; k < 6; k++ {
			spec := Spec{Device: Wildcard, Elem: Wildcard, Index: k}
			want := k < size
			if got := Matches(ev, spec); got != want {
				t.Errorf("size %d index %d: Matches = %v, want %v", size, k, got, want)
			}
		}
	}
}

func TestMatchesPartialEvent(t *testing.T) {
	ev := &Event{Device: "joy1", Index: NoIndex}
	if Matches(ev, MustParseSpec("joy1.valuator")) {
		t.Error("event without content should not match a type name")
	}
	if Matches(ev, MustParseSpec("joy1.x.0")) {
		t.Error("event without content should not match an index")
	}
	if ev.Type() != element.Trigger {
		t.Errorf("Type() of empty event = %v, want trigger", ev.Type())
	}
}
