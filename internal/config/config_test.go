package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/mpconte/VR-Projects-sub003/internal/filter"
)

const sampleConfig = `
[logging]
level = "debug"

[metrics]
enabled = true
listen = "127.0.0.1:9100"

[[device]]
name = "joy1"
type = "playback"
elements = ["button0 switch", "axis0 valuator -1 1"]
options = { file = "joy1.yaml", loop = true }

[[filter]]
name = "dz"
spec = "joy1.axis0"
type = "deadzone"
where = "head"
options = { threshold = 0.1 }

[[filter]]
spec = "*.valuator"
type = "clamp"

[[controller]]
type = "log"
input = "*"
output = "console"
options = '{"level": "debug"}'

[[controller]]
type = "script"
input = "joy1"
output = "lights"
options = { file = "route.lua", params = { button = "button0" } }
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inputrouter.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Prefix != "inputrouter" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != "127.0.0.1:9100" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if len(cfg.Devices) != 1 || len(cfg.Filters) != 2 || len(cfg.Controllers) != 2 {
		t.Fatalf("sections = %d devices, %d filters, %d controllers", len(cfg.Devices), len(cfg.Filters), len(cfg.Controllers))
	}

	desc := cfg.Devices[0].Descriptor()
	if desc.Name != "joy1" || desc.Option("file", "") != "joy1.yaml" || !desc.BoolOption("loop", false) {
		t.Errorf("Descriptor() = %+v", desc)
	}
	if len(desc.Elements) != 2 {
		t.Errorf("Elements = %v", desc.Elements)
	}

	if cfg.Filters[0].WhereOrTail() != filter.Head || cfg.Filters[1].WhereOrTail() != filter.Tail {
		t.Error("WhereOrTail() mismatch")
	}
	if cfg.Filters[0].Label() != "dz" || cfg.Filters[1].Label() != "clamp" {
		t.Error("Label() mismatch")
	}
	if v, ok := cfg.Filters[0].Options["threshold"].(float64); !ok || v != 0.1 {
		t.Errorf("threshold option = %#v", cfg.Filters[0].Options["threshold"])
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestOptionsJSON(t *testing.T) {
	cfg, err := Parse("test", []byte(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	js, err := cfg.Controllers[0].OptionsJSON()
	if err != nil || gjson.Get(js, "level").String() != "debug" {
		t.Errorf("string options = %q, %v", js, err)
	}

	js, err = cfg.Controllers[1].OptionsJSON()
	if err != nil {
		t.Fatalf("table options error = %v", err)
	}
	if gjson.Get(js, "file").String() != "route.lua" || gjson.Get(js, "params.button").String() != "button0" {
		t.Errorf("table options = %s", js)
	}

	tests := []struct {
		name    string
		options any
		want    string
		wantErr bool
	}{
		{"nil", nil, "{}", false},
		{"empty", "", "{}", false},
		{"array", "[1, 2]", "", true},
		{"broken", "{", "", true},
		{"dotted key", map[string]any{"a.b": int64(1)}, `{"a.b":1}`, false},
		{"number", 3, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ControllerConfig{Options: tt.options}.OptionsJSON()
			if (err != nil) != tt.wantErr {
				t.Fatalf("OptionsJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("OptionsJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantLine int
		contains string
	}{
		{"syntax", "[logging]\nlevel = \n", 2, ""},
		{"unknown key", "[logging]\nlevel = \"info\"\ncolour = \"red\"\n", 3, "unknown key logging.colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.toml", []byte(tt.data))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error = %v, want ParseError", err)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", perr.Line, tt.wantLine)
			}
			if !strings.Contains(perr.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", perr.Error(), tt.contains)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:       "warn",
		EnvMetricsListen:  ":9999",
		EnvMetricsEnabled: "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Logging.Level != "warn" || cfg.Metrics.Listen != ":9999" || !cfg.Metrics.Enabled {
		t.Errorf("config after env = %+v %+v", cfg.Logging, cfg.Metrics)
	}

	env[EnvMetricsEnabled] = "maybe"
	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("ApplyEnv() should reject a non-boolean")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Listen = ""
	cfg.Devices = []DeviceConfig{
		{Name: "joy1", Type: "playback"},
		{Name: "joy1", Type: "playback"},
		{Name: "", Type: ""},
		{Name: "a.b", Type: "terminal"},
	}
	cfg.Filters = []FilterConfig{
		{Spec: "a.b.c.d", Type: "clamp"},
		{Spec: "joy1", Type: "", Where: "middle"},
	}
	cfg.Controllers = []ControllerConfig{
		{Type: "", Options: "not json"},
	}

	err := cfg.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Validate() error = %v, want ErrValidationFailed", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("Validate() error is not a ValidationError")
	}

	want := []string{
		"logging.level",
		"metrics.listen",
		"device[1].name",
		"device[2].name",
		"device[2].type",
		"device[3].name",
		"filter[1].type",
		"filter[1].where",
		"controller[0].type",
		"controller[0].options",
	}
	if len(verr.Problems) != len(want) {
		t.Fatalf("problems = %v, want %d", verr.Problems, len(want))
	}
	for i, p := range verr.Problems {
		if p.Path != want[i] {
			t.Errorf("problem %d path = %q, want %q", i, p.Path, want[i])
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
