package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/mpconte/VR-Projects-sub003/internal/controller"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// DefaultControllerFunction is the entry point of a controller script.
const DefaultControllerFunction = "route"

// ControllerDriver is a controller.Driver that runs one Lua state per
// controller.
//
// Options:
//
//	{"source": "...", "file": "route.lua", "function": "route", "params": {...}}
//
// The params object is exposed to the script as the global "params".
type ControllerDriver struct {
	Logger *logging.Logger
}

type scriptController struct {
	state *State
	fn    string
}

// Init implements controller.Driver.
func (d *ControllerDriver) Init(c *controller.Controller, _ string) error {
	fn := c.Options.Get("function").String()
	if fn == "" {
		fn = DefaultControllerFunction
	}

	s := NewState()
	registerLog(s, logging.OrDefault(d.Logger).WithFields(map[string]any{
		"controller": c.ID,
		"output":     c.Output,
	}))
	if params := c.Options.Get("params"); params.Exists() {
		s.SetGlobal("params", jsonValue(s.L, params))
	}

	if err := load(s, c.Options.Get("source").String(), c.Options.Get("file").String()); err != nil {
		s.Close()
		return err
	}
	if !s.HasFunction(fn) {
		s.Close()
		return fmt.Errorf("%w: %q", ErrNoFunction, fn)
	}

	c.Data = &scriptController{state: s, fn: fn}
	return nil
}

// Event implements controller.Driver.
func (d *ControllerDriver) Event(c *controller.Controller, ev *event.Event) int {
	sc := c.Data.(*scriptController)

	code := controller.Decline
	err := sc.state.Call(sc.fn,
		func(L *lua.LState) []lua.LValue {
			ctl := L.NewTable()
			ctl.RawSetString("id", lua.LString(c.ID))
			ctl.RawSetString("type", lua.LString(c.Type))
			ctl.RawSetString("input", lua.LString(c.Input))
			ctl.RawSetString("output", lua.LString(c.Output))
			return []lua.LValue{eventTable(L, ev), ctl}
		},
		func(ret lua.LValue) error {
			var err error
			code, err = parseCode(ret)
			return err
		},
	)
	if err != nil {
		logging.OrDefault(d.Logger).Warn("script controller %s: %v", c.ID, err)
		return -1
	}
	return code
}

// Deinit implements controller.Driver.
func (d *ControllerDriver) Deinit(c *controller.Controller) {
	if sc, ok := c.Data.(*scriptController); ok {
		sc.state.Close()
	}
	c.Data = nil
}

// parseCode converts a script's return value to a driver code.
func parseCode(v lua.LValue) (int, error) {
	switch v := v.(type) {
	case *lua.LNilType:
		return controller.Decline, nil
	case lua.LBool:
		if v {
			return 0, nil
		}
		return controller.Decline, nil
	case lua.LNumber:
		return int(v), nil
	}
	return -1, fmt.Errorf("%w: controller returned %s", ErrBadResult, v.String())
}
