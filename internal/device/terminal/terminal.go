// Package terminal provides a device that reads keyboard and mouse input
// from the controlling terminal through tcell.
//
// Keys become Keyboard events on the "key" element, with the code set to
// the rune for printable keys and to the tcell key value otherwise. Mouse
// motion becomes a 2-vector on "mouse" normalized to [-1, 1] across the
// screen, and the first three mouse buttons become switches named
// button0..button2. Events for elements missing from the model are not
// emitted. Ctrl-C ends the device.
package terminal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// TypeName is the driver type used in configuration.
const TypeName = "terminal"

// Element names produced by the device.
const (
	KeyElem   = "key"
	MouseElem = "mouse"
)

// DefaultElements is the model used when a descriptor lists none.
var DefaultElements = []string{
	"key keyboard",
	"mouse vector 2",
	"button0 switch",
	"button1 switch",
	"button2 switch",
}

var buttonMasks = []tcell.ButtonMask{tcell.Button1, tcell.Button2, tcell.Button3}

// Driver creates terminal devices. NewScreen defaults to tcell.NewScreen.
type Driver struct {
	NewScreen func() (tcell.Screen, error)
}

// Create implements device.Driver.
func (d Driver) Create(desc device.Descriptor, warn func(error)) (device.Device, error) {
	newScreen := d.NewScreen
	if newScreen == nil {
		newScreen = tcell.NewScreen
	}
	screen, err := newScreen()
	if err != nil {
		return nil, err
	}

	if len(desc.Elements) == 0 {
		desc.Elements = DefaultElements
	}
	return &Device{
		Base:   device.NewBase(desc, warn),
		screen: screen,
		mouse:  desc.BoolOption("mouse", true),
		done:   make(chan struct{}),
	}, nil
}

// Device reads events from a tcell screen.
type Device struct {
	device.Base

	screen tcell.Screen
	mouse  bool

	started   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	// buttons is the last seen button mask. Only the poll goroutine uses it.
	buttons tcell.ButtonMask
}

// Start implements device.Device. It initializes the screen.
func (d *Device) Start(ctx context.Context) (<-chan *event.Event, error) {
	select {
	case <-d.done:
		return nil, device.ErrDeviceClosed
	default:
	}
	if !d.started.CompareAndSwap(false, true) {
		return nil, device.ErrAlreadyStarted
	}

	if err := d.screen.Init(); err != nil {
		d.started.Store(false)
		return nil, err
	}
	if d.mouse {
		d.screen.EnableMouse()
	}

	out := make(chan *event.Event)
	go d.poll(ctx, out)
	go func() {
		select {
		case <-ctx.Done():
			d.Close()
		case <-d.done:
		}
	}()
	return out, nil
}

// poll converts screen events until the screen is finalized.
func (d *Device) poll(ctx context.Context, out chan<- *event.Event) {
	defer close(out)

	for {
		tev := d.screen.PollEvent()
		if tev == nil {
			return
		}
		if k, ok := tev.(*tcell.EventKey); ok && k.Key() == tcell.KeyCtrlC {
			d.Close()
			return
		}

		for _, ev := range d.convert(tev) {
			select {
			case out <- ev:
			case <-ctx.Done():
				ev.Release()
			case <-d.done:
				ev.Release()
			}
		}
	}
}

// convert maps one tcell event to zero or more input events.
func (d *Device) convert(tev tcell.Event) []*event.Event {
	var out []*event.Event
	emit := func(elem string, content element.Content) {
		if _, ok := d.Model().Element(elem); !ok {
			return
		}
		ev := event.New(d.Name(), elem, content)
		ev.Timestamp = tev.When()
		out = append(out, ev)
	}

	switch e := tev.(type) {
	case *tcell.EventKey:
		emit(KeyElem, &element.KeyboardContent{Code: keyCode(e), State: true})

	case *tcell.EventMouse:
		x, y := e.Position()
		w, h := d.screen.Size()
		pos := element.NewVector(2)
		pos.Value[0] = normalize(x, w)
		pos.Value[1] = normalize(y, h)
		emit(MouseElem, pos)

		buttons := e.Buttons()
		for i, mask := range buttonMasks {
			now := buttons&mask != 0
			if now != (d.buttons&mask != 0) {
				emit(buttonElem(i), &element.SwitchContent{State: now})
			}
		}
		d.buttons = buttons
	}
	return out
}

// keyCode returns the rune for printable keys and the key value otherwise.
func keyCode(e *tcell.EventKey) int {
	if e.Key() == tcell.KeyRune {
		return int(e.Rune())
	}
	return int(e.Key())
}

// normalize maps a cell coordinate in [0, size) to [-1, 1].
func normalize(pos, size int) float64 {
	if size <= 1 {
		return 0
	}
	return 2*float64(pos)/float64(size-1) - 1
}

func buttonElem(i int) string {
	return "button" + string(rune('0'+i))
}

// Close implements device.Device. It restores the terminal.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		if d.started.Load() {
			d.screen.Fini()
		}
	})
	return nil
}
