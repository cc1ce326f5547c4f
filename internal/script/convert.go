package script

import (
	"fmt"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// eventTable builds the Lua view of ev.
func eventTable(L *lua.LState, ev *event.Event) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("device", lua.LString(ev.Device))
	t.RawSetString("elem", lua.LString(ev.Elem))
	t.RawSetString("index", lua.LNumber(ev.Index))
	t.RawSetString("type", lua.LString(ev.Type().String()))
	t.RawSetString("timestamp", lua.LNumber(float64(ev.Timestamp.UnixNano())/1e9))

	switch c := ev.Content.(type) {
	case *element.SwitchContent:
		t.RawSetString("state", lua.LBool(c.State))
	case *element.ValuatorContent:
		t.RawSetString("min", lua.LNumber(c.Min))
		t.RawSetString("max", lua.LNumber(c.Max))
		t.RawSetString("value", lua.LNumber(c.Value))
	case *element.VectorContent:
		t.RawSetString("min", numberList(L, c.Min))
		t.RawSetString("max", numberList(L, c.Max))
		t.RawSetString("value", numberList(L, c.Value))
	case *element.KeyboardContent:
		t.RawSetString("code", lua.LNumber(c.Code))
		t.RawSetString("state", lua.LBool(c.State))
	}
	return t
}

func numberList(L *lua.LState, vals []float64) *lua.LTable {
	t := L.CreateTable(len(vals), 0)
	for _, v := range vals {
		t.Append(lua.LNumber(v))
	}
	return t
}

// applyTable copies the writable fields of t back into ev. Limits and the
// content type are read-only.
func applyTable(t *lua.LTable, ev *event.Event) error {
	if v, ok := t.RawGetString("device").(lua.LString); ok {
		ev.Device = string(v)
	}
	if v, ok := t.RawGetString("elem").(lua.LString); ok {
		ev.Elem = string(v)
	}
	if v, ok := t.RawGetString("index").(lua.LNumber); ok {
		ev.Index = int(v)
		if ev.Index < event.NoIndex {
			return fmt.Errorf("%w: index %d", ErrBadResult, ev.Index)
		}
	}

	switch c := ev.Content.(type) {
	case *element.SwitchContent:
		if v := t.RawGetString("state"); v != lua.LNil {
			c.State = lua.LVAsBool(v)
		}
	case *element.ValuatorContent:
		if v, ok := t.RawGetString("value").(lua.LNumber); ok {
			c.Value = float64(v)
		}
	case *element.VectorContent:
		vals, ok := t.RawGetString("value").(*lua.LTable)
		if !ok {
			break
		}
		for i := range c.Value {
			if v, ok := vals.RawGetInt(i + 1).(lua.LNumber); ok {
				c.Value[i] = float64(v)
			}
		}
	case *element.KeyboardContent:
		if v, ok := t.RawGetString("code").(lua.LNumber); ok {
			c.Code = int(v)
		}
		if v := t.RawGetString("state"); v != lua.LNil {
			c.State = lua.LVAsBool(v)
		}
	}
	return nil
}

// jsonValue converts a gjson result into a Lua value. Arrays become
// sequences and objects become tables.
func jsonValue(L *lua.LState, r gjson.Result) lua.LValue {
	switch {
	case r.IsArray():
		t := L.NewTable()
		for _, item := range r.Array() {
			t.Append(jsonValue(L, item))
		}
		return t
	case r.IsObject():
		t := L.NewTable()
		r.ForEach(func(k, v gjson.Result) bool {
			t.RawSetString(k.String(), jsonValue(L, v))
			return true
		})
		return t
	}

	switch r.Type {
	case gjson.True:
		return lua.LTrue
	case gjson.False:
		return lua.LFalse
	case gjson.Number:
		return lua.LNumber(r.Float())
	case gjson.String:
		return lua.LString(r.String())
	default:
		return lua.LNil
	}
}
