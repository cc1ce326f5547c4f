package playback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

var testElements = []string{
	"button0 switch",
	"axis0 valuator -2 2",
	"pos vector 2",
	"key keyboard",
	"fire trigger",
}

func createDevice(t *testing.T, opts map[string]string) *Device {
	t.Helper()
	dev, err := Driver{}.Create(device.Descriptor{
		Name:     "joy1",
		Type:     TypeName,
		Elements: testElements,
		Options:  opts,
	}, func(err error) { t.Errorf("warning: %v", err) })
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { dev.Close() })
	return dev.(*Device)
}

func collect(t *testing.T, ch <-chan *event.Event, n int) []*event.Event {
	t.Helper()
	var out []*event.Event
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("received %d events, want %d", len(out), n)
		}
	}
	return out
}

func TestPlaybackInlineEvents(t *testing.T) {
	dev := createDevice(t, map[string]string{"events": `
- elem: button0
  state: true
- elem: axis0
  value: 1.5
- elem: pos
  values: [0.25, -0.5]
- elem: key
  code: 65
  state: true
- elem: fire
`})

	ch, err := dev.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	events := collect(t, ch, 6)
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	if sw, ok := events[0].Content.(*element.SwitchContent); !ok || !sw.State {
		t.Errorf("event 0 = %v", events[0])
	}
	if v, ok := events[1].Content.(*element.ValuatorContent); !ok || v.Value != 1.5 || v.Min != -2 || v.Max != 2 {
		t.Errorf("event 1 = %v", events[1])
	}
	if v, ok := events[2].Content.(*element.VectorContent); !ok || v.Value[0] != 0.25 || v.Value[1] != -0.5 {
		t.Errorf("event 2 = %v", events[2])
	}
	if k, ok := events[3].Content.(*element.KeyboardContent); !ok || k.Code != 65 || !k.State {
		t.Errorf("event 3 = %v", events[3])
	}
	if events[4].Type() != element.Trigger {
		t.Errorf("event 4 = %v", events[4])
	}
	for _, ev := range events {
		if ev.Device != "joy1" {
			t.Errorf("device = %q, want joy1", ev.Device)
		}
	}
}

func TestPlaybackFileWithLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	script := `
loop: true
events:
  - elem: fire
    delay: 1ms
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}

	dev := createDevice(t, map[string]string{"file": path})
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := dev.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if got := collect(t, ch, 3); len(got) != 3 {
		t.Fatalf("looping script produced %d events", len(got))
	}
	cancel()

	// The channel closes once the context is done.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			ev.Release()
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestPlaybackLoopOptionOverrides(t *testing.T) {
	dev := createDevice(t, map[string]string{
		"events": "loop: true\nevents:\n  - elem: fire\n",
		"loop":   "false",
	})
	ch, _ := dev.Start(context.Background())
	if got := collect(t, ch, 2); len(got) != 1 {
		t.Errorf("got %d events, want 1", len(got))
	}
}

func TestPlaybackClose(t *testing.T) {
	dev := createDevice(t, map[string]string{"events": "- elem: fire\n  delay: 1h\n"})
	ch, err := dev.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	dev.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("event emitted after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}

	if _, err := dev.Start(context.Background()); !errors.Is(err, device.ErrDeviceClosed) {
		t.Errorf("Start() after Close error = %v", err)
	}
}

func TestPlaybackStartTwice(t *testing.T) {
	dev := createDevice(t, map[string]string{"events": "- elem: fire\n"})
	if _, err := dev.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.Start(context.Background()); !errors.Is(err, device.ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v", err)
	}
}

func TestPlaybackCreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    map[string]string
		wantErr error
	}{
		{"no script", nil, ErrNoScript},
		{"missing elem", map[string]string{"events": "- value: 1\n"}, ErrInvalidStep},
		{"unknown element", map[string]string{"events": "- elem: ghost\n"}, ErrInvalidStep},
		{"bad type", map[string]string{"events": "- elem: ghost\n  type: joystick\n"}, ErrInvalidStep},
		{"vector size", map[string]string{"events": "- elem: pos\n  values: [1]\n"}, ErrInvalidStep},
		{"bad index", map[string]string{"events": "- elem: pos\n  values: [1, 2]\n  index: -4\n"}, ErrInvalidStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Driver{}.Create(device.Descriptor{Name: "joy1", Elements: testElements, Options: tt.opts}, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	_, err := Driver{}.Create(device.Descriptor{Name: "joy1", Options: map[string]string{"events": "- elem: [oops"}}, nil)
	if err == nil {
		t.Error("Create() should fail on malformed YAML")
	}
}

func TestPlaybackExplicitType(t *testing.T) {
	dev := createDevice(t, map[string]string{"events": "- elem: extra\n  type: valuator\n  value: 0.5\n  device: other\n"})
	ch, _ := dev.Start(context.Background())
	got := collect(t, ch, 1)
	if len(got) != 1 {
		t.Fatal("no event")
	}
	if got[0].Device != "other" || got[0].Type() != element.Valuator {
		t.Errorf("event = %v", got[0])
	}
}

func TestPlaybackThroughPump(t *testing.T) {
	dev := createDevice(t, map[string]string{"events": "- elem: button0\n  state: true\n"})

	var applied []*event.Event
	err := device.Pump(context.Background(), dev, device.DispatcherFunc(func(m *device.Model, ev *event.Event) error {
		m.ApplyEvent(ev)
		applied = append(applied, ev)
		ev.Release()
		return nil
	}), nil)
	if err != nil {
		t.Fatalf("Pump() error = %v", err)
	}

	if len(applied) != 1 {
		t.Fatalf("applied %d events, want 1", len(applied))
	}
	elem, _ := dev.Model().Element("button0")
	if !elem.Content.(*element.SwitchContent).State {
		t.Error("model not updated")
	}
}
