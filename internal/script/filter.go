package script

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/filter"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// DefaultFilterFunction is the entry point of a filter script.
const DefaultFilterFunction = "filter"

// Filter is a filter.Filter backed by a Lua function.
type Filter struct {
	state *State
	fn    string
}

// FilterConfig configures a script filter.
type FilterConfig struct {
	// Source is inline Lua source. It takes precedence over File.
	Source string

	// File is a path to a Lua file.
	File string

	// Function is the entry point. Defaults to DefaultFilterFunction.
	Function string

	// Timeout bounds each call. Defaults to DefaultTimeout.
	Timeout time.Duration

	Logger *logging.Logger
}

// NewFilter loads a filter script.
func NewFilter(cfg FilterConfig) (*Filter, error) {
	if cfg.Function == "" {
		cfg.Function = DefaultFilterFunction
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := NewState(WithTimeout(cfg.Timeout))
	registerLog(s, logging.OrDefault(cfg.Logger).WithField("script", cfg.Function))

	if err := load(s, cfg.Source, cfg.File); err != nil {
		s.Close()
		return nil, err
	}
	if !s.HasFunction(cfg.Function) {
		s.Close()
		return nil, fmt.Errorf("%w: %q", ErrNoFunction, cfg.Function)
	}
	return &Filter{state: s, fn: cfg.Function}, nil
}

// load runs inline source, or the file when source is empty.
func load(s *State, source, file string) error {
	switch {
	case source != "":
		return s.DoString(source)
	case file != "":
		return s.DoFile(file)
	}
	return ErrNoSource
}

// Filter implements filter.Filter.
func (f *Filter) Filter(ev *event.Event) (filter.Status, error) {
	var (
		tbl    *lua.LTable
		status filter.Status
	)
	err := f.state.Call(f.fn,
		func(L *lua.LState) []lua.LValue {
			tbl = eventTable(L, ev)
			return []lua.LValue{tbl}
		},
		func(ret lua.LValue) error {
			var err error
			if status, err = parseStatus(ret); err != nil {
				return err
			}
			return applyTable(tbl, ev)
		},
	)
	if err != nil {
		return filter.Error, err
	}
	return status, nil
}

// Close releases the script's Lua state.
func (f *Filter) Close() error {
	return f.state.Close()
}

// parseStatus converts a script's return value to a filter status.
func parseStatus(v lua.LValue) (filter.Status, error) {
	switch v := v.(type) {
	case *lua.LNilType:
		return filter.Continue, nil
	case lua.LString:
		switch string(v) {
		case "continue":
			return filter.Continue, nil
		case "restart":
			return filter.Restart, nil
		case "discard":
			return filter.Discard, nil
		case "deliver":
			return filter.Deliver, nil
		case "error":
			return filter.Error, nil
		}
	case lua.LNumber:
		if n := int(v); lua.LNumber(n) == v && n >= 0 && n <= int(filter.Error) {
			return filter.Status(n), nil
		}
	}
	return filter.Error, fmt.Errorf("%w: filter returned %s", ErrBadResult, v.String())
}

// RegisterFilter adds the "script" filter type to factories. Options:
// source, file, function and timeout (milliseconds).
func RegisterFilter(factories *filter.Factories, logger *logging.Logger) {
	factories.Register("script", func(o filter.Options) (filter.Filter, error) {
		ms, err := o.Float("timeout", float64(DefaultTimeout/time.Millisecond))
		if err != nil {
			return nil, err
		}
		f, err := NewFilter(FilterConfig{
			Source:   o.String("source", ""),
			File:     o.String("file", ""),
			Function: o.String("function", DefaultFilterFunction),
			Timeout:  time.Duration(ms * float64(time.Millisecond)),
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", filter.ErrBadOption, err)
		}
		return f, nil
	})
}
