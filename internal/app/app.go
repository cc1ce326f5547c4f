// Package app wires the configuration, devices and event pipeline into a
// running router.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mpconte/VR-Projects-sub003/internal/config"
	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/filter"
	"github.com/mpconte/VR-Projects-sub003/internal/interlock"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
	"github.com/mpconte/VR-Projects-sub003/internal/metrics"
	"github.com/mpconte/VR-Projects-sub003/internal/router"
)

// ShutdownTimeout bounds the metrics server shutdown.
const ShutdownTimeout = 5 * time.Second

// Options configures an App.
type Options struct {
	// ConfigPath is the TOML file to load. Empty means defaults.
	ConfigPath string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config

	// LogLevel and MetricsListen override the file and the environment.
	// A non-empty MetricsListen also enables the metrics endpoint.
	LogLevel      string
	MetricsListen string

	// Watch reloads the filter chain and controllers when the file changes.
	Watch bool

	// Sink receives delivered events. Defaults to a debug-logging sink.
	Sink router.Sink

	// LogOutput overrides the log destination.
	LogOutput io.Writer

	// Lookup reads environment overrides. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)

	// Drivers overrides the device driver registry.
	Drivers *device.Registry
}

// App is a configured router.
type App struct {
	opts    Options
	logger  *logging.Logger
	logFile *os.File

	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	factories *filter.Factories
	drivers   *device.Registry
	router    *router.Router

	mu          sync.Mutex
	cfg         *config.Config
	running     bool
	metricsAddr string
}

// LoadConfig loads, overrides and validates the configuration described
// by opts.
func LoadConfig(opts Options) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case opts.Config != nil:
		c := *opts.Config
		cfg = &c
	case opts.ConfigPath != "":
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, err
		}
	default:
		cfg = config.Default()
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.MetricsListen != "" {
		cfg.Metrics.Listen = opts.MetricsListen
		cfg.Metrics.Enabled = true
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New loads the configuration and builds the pipeline. Devices are not
// opened until Run.
func New(opts Options) (*App, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &App{opts: opts, cfg: cfg}
	if err := a.initLogger(); err != nil {
		return nil, err
	}

	a.registry = metrics.NewRegistry()
	a.metrics = metrics.New(a.registry)
	a.factories = NewFilterFactories(a.logger)
	a.drivers = opts.Drivers
	if a.drivers == nil {
		a.drivers = NewDeviceDrivers()
	}

	chain, err := BuildChain(cfg, a.factories, a.metrics, a.logger)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	controllers, err := BuildControllers(cfg, a.logger, a.metrics)
	if err != nil {
		router.CloseFilters(chain)
		a.closeLog()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	sink := opts.Sink
	if sink == nil {
		sink = logSink(a.logger.WithComponent("sink"))
	}

	a.router = router.New(router.Config{
		Frame:       interlock.New(interlock.WithExclusiveWaitHook(a.metrics.ObserveExclusiveWait)),
		Chain:       chain,
		Controllers: controllers,
		Sink:        sink,
		Logger:      a.logger,
		Metrics:     a.metrics,
	})

	a.logger.Info("configured %d devices, %d filters, %d controllers",
		len(cfg.Devices), chain.Len(), len(controllers.Controllers()))
	return a, nil
}

func (a *App) initLogger() error {
	out := a.opts.LogOutput
	if out == nil && a.cfg.Logging.File != "" {
		f, err := os.OpenFile(a.cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("%w: open log file: %w", ErrInitialization, err)
		}
		a.logFile = f
		out = f
	}
	a.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(a.cfg.Logging.Level),
		Output: out,
		Prefix: a.cfg.Logging.Prefix,
	})
	return nil
}

func (a *App) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func logSink(logger *logging.Logger) router.Sink {
	return router.SinkFunc(func(ev *event.Event) {
		logger.Debug("delivered %s", ev)
		ev.Release()
	})
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Router returns the event pipeline.
func (a *App) Router() *router.Router {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger {
	return a.logger
}

// Gatherer returns the metrics registry.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.registry
}

// MetricsAddr returns the metrics listener address while Run is serving.
func (a *App) MetricsAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metricsAddr
}

// Run opens the configured devices and pumps their events through the
// pipeline until ctx is done or every device has stopped. Run may be
// called once.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	cfg := a.cfg
	a.mu.Unlock()

	devices := a.openDevices(cfg.Devices)
	if len(devices) == 0 {
		a.stopped()
		return ErrNoDevices
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Enabled {
		srv, err := a.serveMetrics(cfg.Metrics)
		if err != nil {
			closeDevices(devices)
			a.stopped()
			return err
		}
		defer a.shutdownMetrics(srv)
	}

	if a.opts.Watch && cfg.Path != "" {
		w, err := config.NewWatcher(cfg.Path)
		if err != nil {
			a.logger.Warn("config watch disabled: %v", err)
		} else {
			defer w.Close()
			go w.Run(ctx, func() {
				if err := a.Reload(); err != nil {
					a.logger.Error("%v", err)
				}
			}, func(err error) {
				a.logger.Warn("config watch: %v", err)
			})
		}
	}

	var wg sync.WaitGroup
	for i, dev := range devices {
		wg.Add(1)
		go func(dev device.Device, dc config.DeviceConfig) {
			defer wg.Done()
			a.pump(ctx, dev, dc)
		}(dev, cfg.Devices[i])
	}
	wg.Wait()

	a.logger.Info("all devices stopped")
	return nil
}

// stopped clears the running flag after Run fails before pumping.
func (a *App) stopped() {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// openDevices returns the devices that opened. A nil entry marks one
// that failed so the result lines up with configs.
func (a *App) openDevices(configs []config.DeviceConfig) []device.Device {
	out := make([]device.Device, 0, len(configs))
	opened := 0
	for _, dc := range configs {
		desc := dc.Descriptor()
		log := a.logger.WithField("device", desc.Name)
		dev, err := a.drivers.Create(desc, nil, func(err error) {
			log.Warn("%v", err)
		})
		if err != nil {
			log.Error("open failed: %v", err)
			out = append(out, nil)
			continue
		}
		log.Info("opened %s device with %d elements (session %s)", desc.Type, dev.Model().Len(), dev.Session())
		out = append(out, dev)
		opened++
	}
	if opened == 0 {
		return nil
	}
	return out
}

func closeDevices(devices []device.Device) {
	for _, dev := range devices {
		if dev != nil {
			_ = dev.Close()
		}
	}
}

func (a *App) pump(ctx context.Context, dev device.Device, dc config.DeviceConfig) {
	if dev == nil {
		return
	}
	defer dev.Close()

	log := a.logger.WithField("device", dev.Name())
	drop := dc.Descriptor().BoolOption("drop_on_error", false)

	err := device.Pump(ctx, dev, a.router, func(dev device.Device, err error) bool {
		a.metrics.RecordDeviceError(dev.Name())
		log.Warn("dispatch: %v", err)
		return !drop
	})
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info("stopped")
	default:
		a.metrics.RecordDeviceError(dev.Name())
		log.Error("stopped: %v", err)
	}
}

func (a *App) serveMetrics(mc config.MetricsConfig) (*http.Server, error) {
	ln, err := net.Listen("tcp", mc.Listen)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(mc.Path, metrics.Handler(a.registry))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.mu.Lock()
	a.metricsAddr = ln.Addr().String()
	a.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server: %v", err)
		}
	}()
	a.logger.Info("serving metrics on %s%s", ln.Addr(), mc.Path)
	return srv, nil
}

func (a *App) shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Warn("metrics shutdown: %v", err)
	}
	a.mu.Lock()
	a.metricsAddr = ""
	a.mu.Unlock()
}

// Reload re-reads the configuration file and swaps in a new filter chain
// and controller set between frames. Device sections are not reopened. On
// any error the running configuration is kept.
func (a *App) Reload() error {
	cfg := a.Config()
	opts := a.opts
	opts.Config = nil
	opts.ConfigPath = cfg.Path

	err := a.rebuild(opts)
	a.metrics.RecordReload(err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return nil
}

func (a *App) rebuild(opts Options) error {
	if opts.ConfigPath == "" {
		return errors.New("configuration was not loaded from a file")
	}
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	chain, err := BuildChain(cfg, a.factories, a.metrics, a.logger)
	if err != nil {
		return err
	}
	controllers, err := BuildControllers(cfg, a.logger, a.metrics)
	if err != nil {
		router.CloseFilters(chain)
		return err
	}

	a.router.Reconfigure(chain, controllers)
	a.logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))

	a.mu.Lock()
	prev := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	if !sameDevices(prev.Devices, cfg.Devices) {
		a.logger.Warn("device changes take effect on restart")
	}
	a.logger.Info("reloaded %s", cfg.Path)
	return nil
}

func sameDevices(a, b []config.DeviceConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

// Close releases the pipeline and the log file.
func (a *App) Close() error {
	a.router.Close()
	a.closeLog()
	return nil
}
