package app

import (
	"fmt"

	"github.com/mpconte/VR-Projects-sub003/internal/config"
	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
	"github.com/mpconte/VR-Projects-sub003/internal/router"
)

// Report summarizes a configuration check.
type Report struct {
	Config      *config.Config
	Devices     int
	Elements    int
	Filters     int
	Controllers int

	// Warnings are problems that do not stop the router from starting,
	// such as element spec lines that will be skipped.
	Warnings []string
}

// Check loads the configuration and builds its filter chain and
// controllers without opening any device. Element specs are parsed and
// device types are checked against the builtin drivers.
func Check(opts Options) (*Report, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := logging.Nop()

	chain, err := BuildChain(cfg, NewFilterFactories(logger), nil, logger)
	if err != nil {
		return nil, err
	}
	defer router.CloseFilters(chain)

	controllers, err := BuildControllers(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	defer controllers.Close()

	drivers := opts.Drivers
	if drivers == nil {
		drivers = NewDeviceDrivers()
	}
	known := make(map[string]bool)
	for _, t := range drivers.Types() {
		known[t] = true
	}

	r := &Report{
		Config:      cfg,
		Devices:     len(cfg.Devices),
		Filters:     chain.Len(),
		Controllers: len(controllers.Controllers()),
	}
	for i, fc := range cfg.Filters {
		if _, err := event.ParseSpec(fc.Spec); err != nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("filter[%d] %s: skipped: %v", i, fc.Label(), err))
		}
	}
	for i, dc := range cfg.Devices {
		if !known[dc.Type] {
			r.Warnings = append(r.Warnings, fmt.Sprintf("device[%d] %s: unknown type %q", i, dc.Name, dc.Type))
		}
		model, errs := device.ParseModel(dc.Elements)
		r.Elements += model.Len()
		for _, err := range errs {
			r.Warnings = append(r.Warnings, fmt.Sprintf("device[%d] %s: %v", i, dc.Name, err))
		}
	}
	return r, nil
}
