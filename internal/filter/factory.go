package filter

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// Options are the settings passed to a filter factory, typically decoded
// from a configuration table.
type Options map[string]any

// Float returns a numeric option, or def if it is absent.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not a number", ErrBadOption, key, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s has type %T, want number", ErrBadOption, key, v)
}

// String returns a string option, or def if it is absent.
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Factory builds a filter from options.
type Factory func(opts Options) (Filter, error)

// Factories maps filter type names to factories.
// It is safe for concurrent use.
type Factories struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewFactories returns a registry holding the built-in filter types:
// clamp, scale, invert, deadzone, remap, threshold, discard, deliver, log.
func NewFactories(logger *logging.Logger) *Factories {
	f := &Factories{factories: make(map[string]Factory)}

	f.Register("clamp", func(o Options) (Filter, error) {
		lo, err := o.Float("min", 0)
		if err != nil {
			return nil, err
		}
		hi, err := o.Float("max", 1)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, fmt.Errorf("%w: clamp min %g > max %g", ErrBadOption, lo, hi)
		}
		return Clamp{Min: lo, Max: hi}, nil
	})
	f.Register("scale", func(o Options) (Filter, error) {
		s, err := o.Float("scale", 1)
		if err != nil {
			return nil, err
		}
		off, err := o.Float("offset", 0)
		if err != nil {
			return nil, err
		}
		return Scale{Scale: s, Offset: off}, nil
	})
	f.Register("invert", func(Options) (Filter, error) {
		return Invert{}, nil
	})
	f.Register("deadzone", func(o Options) (Filter, error) {
		th, err := o.Float("threshold", 0.05)
		if err != nil {
			return nil, err
		}
		return Deadzone{Threshold: th}, nil
	})
	f.Register("remap", func(o Options) (Filter, error) {
		r := Remap{Device: o.String("device", ""), Elem: o.String("elem", "")}
		if r.Device == "" && r.Elem == "" {
			return nil, fmt.Errorf("%w: remap needs device or elem", ErrBadOption)
		}
		return r, nil
	})
	f.Register("threshold", func(o Options) (Filter, error) {
		lvl, err := o.Float("level", 0.5)
		if err != nil {
			return nil, err
		}
		return Threshold{Level: lvl}, nil
	})
	f.Register("discard", func(Options) (Filter, error) {
		return Constant(Discard), nil
	})
	f.Register("deliver", func(Options) (Filter, error) {
		return Constant(Deliver), nil
	})
	f.Register("log", func(o Options) (Filter, error) {
		return Log{
			Logger: logging.OrDefault(logger).WithComponent("filter"),
			Level:  logging.ParseLevel(o.String("level", "debug")),
		}, nil
	})

	return f
}

// Register adds or replaces the factory for typeName.
func (f *Factories) Register(typeName string, factory Factory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factories[typeName] = factory
}

// New builds a filter of the named type.
func (f *Factories) New(typeName string, opts Options) (Filter, error) {
	f.mu.RLock()
	factory, ok := f.factories[typeName]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	if opts == nil {
		opts = Options{}
	}
	return factory(opts)
}

// Types returns the registered type names, sorted.
func (f *Factories) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.factories))
	for name := range f.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
