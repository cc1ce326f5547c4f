package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mpconte/VR-Projects-sub003/internal/device"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/filter"
	"github.com/mpconte/VR-Projects-sub003/internal/logging"
)

// Config is the complete router configuration.
type Config struct {
	Logging     LoggingConfig      `toml:"logging"`
	Metrics     MetricsConfig      `toml:"metrics"`
	Devices     []DeviceConfig     `toml:"device"`
	Filters     []FilterConfig     `toml:"filter"`
	Controllers []ControllerConfig `toml:"controller"`

	// Path is the file the configuration was loaded from, if any.
	Path string `toml:"-"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`

	// File appends log output to a file instead of stderr.
	File string `toml:"file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
	Path    string `toml:"path"`
}

// DeviceConfig describes a device to open.
type DeviceConfig struct {
	Name     string         `toml:"name"`
	Type     string         `toml:"type"`
	Elements []string       `toml:"elements"`
	Options  map[string]any `toml:"options"`
}

// FilterConfig describes a filter chain entry.
type FilterConfig struct {
	Name    string         `toml:"name"`
	Spec    string         `toml:"spec"`
	Type    string         `toml:"type"`
	Where   string         `toml:"where"`
	Options map[string]any `toml:"options"`
}

// ControllerConfig describes a controller. Options is a JSON object,
// written either as a string or as a TOML table.
type ControllerConfig struct {
	Type    string `toml:"type"`
	Input   string `toml:"input"`
	Output  string `toml:"output"`
	Options any    `toml:"options"`
}

// Default returns a configuration with default settings and no devices.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Prefix: "inputrouter"},
		Metrics: MetricsConfig{Listen: ":9090", Path: "/metrics"},
	}
}

// Load reads and parses the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse parses TOML data over the defaults. Unknown keys are errors.
func Parse(source string, data []byte) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, newParseError(source, err)
	}
	return cfg, nil
}

// newParseError converts a go-toml error into a ParseError with position.
func newParseError(source string, err error) *ParseError {
	perr := &ParseError{Path: source, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	var serr *toml.StrictMissingError
	switch {
	case errors.As(err, &derr):
		perr.Line, perr.Column = derr.Position()
	case errors.As(err, &serr) && len(serr.Errors) > 0:
		first := serr.Errors[0]
		perr.Line, perr.Column = first.Position()
		perr.Message = "unknown key " + strings.Join(first.Key(), ".")
	}
	return perr
}

// Environment variables that override file settings.
const (
	EnvLogLevel       = "INPUTROUTER_LOG_LEVEL"
	EnvMetricsListen  = "INPUTROUTER_METRICS_LISTEN"
	EnvMetricsEnabled = "INPUTROUTER_METRICS_ENABLED"
)

// ApplyEnv overlays environment overrides read through lookup, which is
// normally os.LookupEnv. Empty values are treated as set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvMetricsListen); ok {
		c.Metrics.Listen = v
	}
	if v, ok := lookup(EnvMetricsEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMetricsEnabled, err)
		}
		c.Metrics.Enabled = b
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var problems []Problem
	add := func(path, format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		add("metrics.listen", "required when metrics are enabled")
	}
	if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path", "must start with /")
	}

	names := make(map[string]bool)
	for i, d := range c.Devices {
		path := fmt.Sprintf("device[%d]", i)
		switch {
		case d.Name == "":
			add(path+".name", "required")
		case d.Name == event.Wildcard || strings.Contains(d.Name, "."):
			add(path+".name", "%q may not be a wildcard or contain dots", d.Name)
		case names[d.Name]:
			add(path+".name", "duplicate device %q", d.Name)
		}
		names[d.Name] = true
		if d.Type == "" {
			add(path+".type", "required")
		}
	}

	for i, f := range c.Filters {
		path := fmt.Sprintf("filter[%d]", i)
		if f.Type == "" {
			add(path+".type", "required")
		}
		if f.Where != "" {
			if _, err := filter.ParseWhere(f.Where); err != nil {
				add(path+".where", "%v", err)
			}
		}
	}

	for i, ctl := range c.Controllers {
		path := fmt.Sprintf("controller[%d]", i)
		if ctl.Type == "" {
			add(path+".type", "required")
		}
		if _, err := ctl.OptionsJSON(); err != nil {
			add(path+".options", "%v", err)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Descriptor converts the device section into a device descriptor.
// Option values are stringified.
func (d DeviceConfig) Descriptor() device.Descriptor {
	opts := make(map[string]string, len(d.Options))
	for k, v := range d.Options {
		if s, ok := v.(string); ok {
			opts[k] = s
		} else {
			opts[k] = fmt.Sprint(v)
		}
	}
	return device.Descriptor{
		Name:     d.Name,
		Type:     d.Type,
		Elements: append([]string(nil), d.Elements...),
		Options:  opts,
	}
}

// WhereOrTail returns the parsed insertion point, defaulting to tail.
func (f FilterConfig) WhereOrTail() filter.Where {
	w, err := filter.ParseWhere(f.Where)
	if err != nil {
		return filter.Tail
	}
	return w
}

// Label names the filter entry in logs and metrics.
func (f FilterConfig) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Type
}

// OptionsJSON returns the controller options as a JSON object string.
func (c ControllerConfig) OptionsJSON() (string, error) {
	switch v := c.Options.(type) {
	case nil:
		return "{}", nil
	case string:
		if v == "" {
			return "{}", nil
		}
		if !gjson.Valid(v) || !gjson.Parse(v).IsObject() {
			return "", fmt.Errorf("options must be a JSON object: %s", v)
		}
		return v, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		js := "{}"
		for _, k := range keys {
			var err error
			if js, err = sjson.Set(js, escapePath(k), v[k]); err != nil {
				return "", fmt.Errorf("options key %q: %w", k, err)
			}
		}
		return js, nil
	}
	return "", fmt.Errorf("options must be a string or table, got %T", c.Options)
}

// escapePath escapes the sjson path metacharacters in a literal key.
func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(key)
}
