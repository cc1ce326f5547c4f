package app

import (
	"errors"
	"fmt"

	"github.com/mpconte/VR-Projects-sub003/internal/config"
	"github.com/mpconte/VR-Projects-sub003/internal/controller"
	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/device/playback"
	"github.com/mpconte/VR-Projects-sub003/internal/device/terminal"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/filter"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
	"github.com/mpconte/VR-Projects-sub003/internal/metrics"
	"github.com/mpconte/VR-Projects-sub003/internal/router"
	"github.com/mpconte/VR-Projects-sub003/internal/script"
)

// Builtin controller driver names.
const (
	LogController    = "log"
	CountController  = "count"
	ScriptController = "script"
)

// NewDeviceDrivers returns a registry with the builtin device drivers.
func NewDeviceDrivers() *device.Registry {
	r := device.NewRegistry()
	_ = r.Register(playback.TypeName, playback.Driver{})
	_ = r.Register(terminal.TypeName, terminal.Driver{})
	return r
}

// NewFilterFactories returns the builtin filter types plus "script".
func NewFilterFactories(logger *logging.Logger) *filter.Factories {
	f := filter.NewFactories(logger)
	script.RegisterFilter(f, logger)
	return f
}

// BuildChain creates the filter chain described by cfg.Filters. Entries
// whose spec does not parse are logged and skipped. Any other failure
// closes every filter already created and all failures are returned.
func BuildChain(cfg *config.Config, factories *filter.Factories, m *metrics.Metrics, logger *logging.Logger) (*filter.Chain, error) {
	logger = logging.OrDefault(logger)
	chain := filter.NewChain(filter.WithObserver(m.RecordFilter))

	var errs []error
	for i, fc := range cfg.Filters {
		label := fmt.Sprintf("filter[%d] %s", i, fc.Label())

		spec, err := event.ParseSpec(fc.Spec)
		if err != nil {
			logger.Warn("skipping %s: %v", label, err)
			continue
		}
		f, err := factories.New(fc.Type, filter.Options(fc.Options))
		if err != nil {
			errs = append(errs, &OperationError{Op: "filter", Target: label, Err: err})
			continue
		}
		entry := chain.Add(spec, f, fc.WhereOrTail())
		entry.Name = fc.Label()
	}

	if len(errs) > 0 {
		router.CloseFilters(chain)
		return nil, errors.Join(errs...)
	}
	return chain, nil
}

// BuildControllers creates a controller registry with the builtin drivers
// and one controller per cfg.Controllers entry. Configuration order is
// preserved for routing: the first entry is consulted first. Any creation
// failure closes the registry and all failures are returned.
func BuildControllers(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*controller.Registry, error) {
	reg := controller.NewRegistry(logger)
	_ = reg.RegisterDriver(LogController, &controller.LogDriver{Logger: logger})
	_ = reg.RegisterDriver(ScriptController, &script.ControllerDriver{Logger: logger})

	count := &controller.CountDriver{}
	if m != nil {
		count.Counter = m.ControllerEvents
	}
	_ = reg.RegisterDriver(CountController, count)

	var errs []error
	// The registry consults the newest controller first.
	for i := len(cfg.Controllers) - 1; i >= 0; i-- {
		cc := cfg.Controllers[i]
		label := fmt.Sprintf("controller[%d] %s", i, cc.Type)

		opts, err := cc.OptionsJSON()
		if err != nil {
			errs = append(errs, &OperationError{Op: "controller", Target: label, Err: err})
			continue
		}
		if _, err := reg.Create(controller.Desc{
			Type:    cc.Type,
			Input:   cc.Input,
			Output:  cc.Output,
			Options: opts,
		}); err != nil {
			errs = append(errs, &OperationError{Op: "controller", Target: label, Err: err})
		}
	}

	if len(errs) > 0 {
		reg.Close()
		return nil, errors.Join(errs...)
	}
	return reg, nil
}
