package device

import (
	"errors"
	"testing"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

func mustModel(t *testing.T, lines ...string) *Model {
	t.Helper()
	m, errs := ParseModel(lines)
	if len(errs) != 0 {
		t.Fatalf("ParseModel errors: %v", errs)
	}
	return m
}

func TestApplyEventSwitch(t *testing.T) {
	m := mustModel(t, "button0 switch")

	m.ApplyEvent(event.New("joy1", "button0", &element.SwitchContent{State: true}))

	e, _ := m.Element("button0")
	if !e.Content.(*element.SwitchContent).State {
		t.Error("button0.state = false, want true")
	}
}

func TestApplyEventValuatorKeepsRange(t *testing.T) {
	m := mustModel(t, "axis0 valuator -1 1")

	m.ApplyEvent(event.New("joy1", "axis0", &element.ValuatorContent{Min: 0, Max: 10, Value: 0.25}))

	e, _ := m.Element("axis0")
	v := e.Content.(*element.ValuatorContent)
	if v.Value != 0.25 {
		t.Errorf("value = %v, want 0.25", v.Value)
	}
	if v.Min != -1 || v.Max != 1 {
		t.Errorf("range changed to [%v,%v]", v.Min, v.Max)
	}
}

func TestApplyEventVectorOverlap(t *testing.T) {
	tests := []struct {
		name      string
		modelSize int
		values    []float64
		want      []float64
	}{
		{"same size", 3, []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"event shorter", 3, []float64{1}, []float64{1, 0, 0}},
		{"event longer", 2, []float64{1, 2, 3}, []float64{1, 2}},
		{"empty event", 2, nil, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel()
			if err := m.Add(&element.Element{Name: "pos", Content: element.NewVector(tt.modelSize)}); err != nil {
				t.Fatal(err)
			}
			v := element.NewVector(len(tt.values))
			copy(v.Value, tt.values)

			m.ApplyEvent(event.New("head", "pos", v))

			e, _ := m.Element("pos")
			got := e.Content.(*element.VectorContent).Value
			if len(got) != len(tt.want) {
				t.Fatalf("size = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("value = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestApplyEventKeyboard(t *testing.T) {
	m := mustModel(t, "key keyboard")
	m.ApplyEvent(event.New("kbd", "key", &element.KeyboardContent{Code: 65, State: true}))

	e, _ := m.Element("key")
	k := e.Content.(*element.KeyboardContent)
	if k.Code != 65 || !k.State {
		t.Errorf("keyboard = %+v", k)
	}
}

func TestApplyEventIgnored(t *testing.T) {
	m := mustModel(t, "button0 switch", "axis0 valuator -1 1 0.5")
	before := m.Snapshot()

	events := []*event.Event{
		event.New("joy1", "unknown", &element.SwitchContent{State: true}),
		event.New("joy1", "button0", &element.ValuatorContent{Value: 1}),
		event.New("joy1", "axis0", &element.SwitchContent{State: true}),
		{Device: "joy1", Elem: "axis0"},
		nil,
	}
	for _, ev := range events {
		m.ApplyEvent(ev)
	}

	after := m.Snapshot()
	for name, c := range before {
		if element.Format(after[name]) != element.Format(c) {
			t.Errorf("%s changed from %s to %s", name, element.Format(c), element.Format(after[name]))
		}
	}
}

func TestApplyEventDoesNotReleaseOrModify(t *testing.T) {
	m := mustModel(t, "button0 switch")
	ev := event.New("joy1", "button0", &element.SwitchContent{State: true})

	m.ApplyEvent(ev)

	if ev.Released() {
		t.Error("ApplyEvent released the event")
	}
	if !ev.Content.(*element.SwitchContent).State {
		t.Error("ApplyEvent modified the event")
	}
}

func TestParseModelDuplicatesAndErrors(t *testing.T) {
	m, errs := ParseModel([]string{
		"button0 switch",
		"button0 switch",
		"axis0 valuator",
		"axis1 valuator 0 1",
	})

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want 2", errs)
	}

	var dup, syntax bool
	for _, err := range errs {
		if errors.Is(err, ErrDuplicateElement) {
			dup = true
		}
		if errors.Is(err, element.ErrSyntax) {
			syntax = true
		}
	}
	if !dup || !syntax {
		t.Errorf("errors = %v, want one duplicate and one syntax error", errs)
	}

	names := m.Names()
	if len(names) != 2 || names[0] != "axis1" || names[1] != "button0" {
		t.Errorf("Names() = %v", names)
	}
}
