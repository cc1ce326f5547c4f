package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// installSandbox removes the loaders that reach outside the state and
// replaces require with a whitelist of the opened libraries.
func installSandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	safeModules := map[string]bool{
		"string": true,
		"table":  true,
		"math":   true,
	}
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !safeModules[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(L.GetGlobal(name))
		return 1
	}))
}

// registerLog installs the "log" module, which writes through logger.
func registerLog(s *State, logger *logging.Logger) {
	logFn := func(level logging.Level) lua.LGFunction {
		return func(L *lua.LState) int {
			logger.Log(level, "%s", L.CheckString(1))
			return 0
		}
	}
	s.RegisterModule("log", map[string]lua.LGFunction{
		"debug": logFn(logging.LevelDebug),
		"info":  logFn(logging.LevelInfo),
		"warn":  logFn(logging.LevelWarn),
		"error": logFn(logging.LevelError),
	})
}
