package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/sjson"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// Decline is the Event code a driver returns to pass an event on.
const Decline = 1

// DriverFuncs adapts functions to the Driver interface. Nil functions are
// no-ops; a nil EventFn declines every event.
type DriverFuncs struct {
	InitFn   func(c *Controller, options string) error
	EventFn  func(c *Controller, ev *event.Event) int
	DeinitFn func(c *Controller)
}

// Init implements Driver.
func (d DriverFuncs) Init(c *Controller, options string) error {
	if d.InitFn == nil {
		return nil
	}
	return d.InitFn(c, options)
}

// Event implements Driver.
func (d DriverFuncs) Event(c *Controller, ev *event.Event) int {
	if d.EventFn == nil {
		return Decline
	}
	return d.EventFn(c, ev)
}

// Deinit implements Driver.
func (d DriverFuncs) Deinit(c *Controller) {
	if d.DeinitFn != nil {
		d.DeinitFn(c)
	}
}

// consumeCode maps a "consume" option to an Event return code.
func consumeCode(consume bool) int {
	if consume {
		return 0
	}
	return Decline
}

// LogDriver writes a JSON record of each event to a logger.
//
// Options:
//
//	{"consume": false, "level": "info"}
type LogDriver struct {
	Logger *logging.Logger
}

type logState struct {
	logger *logging.Logger
	level  logging.Level
	code   int
}

// Init implements Driver.
func (d *LogDriver) Init(c *Controller, _ string) error {
	level := "info"
	if l := c.Options.Get("level"); l.Exists() {
		level = l.String()
	}
	c.Data = &logState{
		logger: logging.OrDefault(d.Logger).WithFields(map[string]any{
			"controller": c.ID,
			"output":     c.Output,
		}),
		level: logging.ParseLevel(level),
		code:  consumeCode(c.Options.Get("consume").Bool()),
	}
	return nil
}

// Event implements Driver.
func (d *LogDriver) Event(c *Controller, ev *event.Event) int {
	st := c.Data.(*logState)
	if st.logger.Enabled(st.level) {
		record, err := EventJSON(ev)
		if err != nil {
			return -1
		}
		st.logger.Log(st.level, "%s", record)
	}
	return st.code
}

// Deinit implements Driver.
func (d *LogDriver) Deinit(c *Controller) {
	c.Data = nil
}

// jsonField is one path/value pair of an event record.
type jsonField struct {
	path string
	v    any
}

// EventJSON renders ev as a JSON object.
func EventJSON(ev *event.Event) (string, error) {
	fields := []jsonField{
		{"device", ev.Device},
		{"elem", ev.Elem},
		{"index", ev.Index},
		{"type", ev.Type().String()},
		{"timestamp", ev.Timestamp.UnixNano()},
	}
	switch c := ev.Content.(type) {
	case *element.SwitchContent:
		fields = append(fields, jsonField{"state", c.State})
	case *element.ValuatorContent:
		fields = append(fields, jsonField{"min", c.Min}, jsonField{"max", c.Max}, jsonField{"value", c.Value})
	case *element.VectorContent:
		fields = append(fields, jsonField{"min", c.Min}, jsonField{"max", c.Max}, jsonField{"value", c.Value})
	case *element.KeyboardContent:
		fields = append(fields, jsonField{"code", c.Code}, jsonField{"state", c.State})
	}

	js := "{}"
	for _, f := range fields {
		var err error
		if js, err = sjson.Set(js, f.path, f.v); err != nil {
			return "", err
		}
	}
	return js, nil
}

// CountDriver counts events per controller output on a Prometheus counter
// labeled by output and device.
//
// Options:
//
//	{"consume": true}
type CountDriver struct {
	Counter *prometheus.CounterVec
}

// Init implements Driver.
func (d *CountDriver) Init(c *Controller, _ string) error {
	consume := true
	if v := c.Options.Get("consume"); v.Exists() {
		consume = v.Bool()
	}
	c.Data = consumeCode(consume)
	return nil
}

// Event implements Driver.
func (d *CountDriver) Event(c *Controller, ev *event.Event) int {
	if d.Counter != nil {
		d.Counter.WithLabelValues(c.Output, ev.Device).Inc()
	}
	return c.Data.(int)
}

// Deinit implements Driver. Series are kept: a replacement controller for
// the same output keeps counting on them after a reload.
func (d *CountDriver) Deinit(c *Controller) {
	c.Data = nil
}
