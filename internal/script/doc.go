// Package script runs Lua filters and controllers on gopher-lua.
//
// A script filter is a Lua function called with a table describing the
// event. The function may modify the table's device, elem, index and value
// fields in place; the changes are copied back into the event. It returns
// one of the status names "continue", "restart", "discard", "deliver" or
// "error", or nothing for continue:
//
//	function filter(ev)
//	    if ev.type == "valuator" and math.abs(ev.value) < 0.1 then
//	        return "discard"
//	    end
//	    ev.value = ev.value * 2
//	end
//
// A script controller is a Lua function called with the event table and a
// table describing the controller. It returns a driver code: 0 or true to
// consume, a positive number, false or nothing to decline, and a negative
// number to report an error:
//
//	function route(ev, ctl)
//	    log.info(ctl.output .. " got " .. ev.elem)
//	    return 0
//	end
//
// Scripts run in a sandboxed state with only the base, table, string and
// math libraries. Each call is bounded by a timeout.
package script
