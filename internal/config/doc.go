// Package config loads the router configuration from TOML.
//
// A configuration file looks like:
//
//	[logging]
//	level = "info"
//	file = "/var/log/inputrouter.log"
//
//	[metrics]
//	enabled = true
//	listen = ":9090"
//
//	[[device]]
//	name = "joy1"
//	type = "playback"
//	elements = ["button0 switch", "axis0 valuator -1 1"]
//	options = { file = "joy1.yaml", loop = true }
//
//	[[filter]]
//	spec = "joy1.axis0"
//	type = "deadzone"
//	where = "tail"
//	options = { threshold = 0.1 }
//
//	[[controller]]
//	type = "log"
//	input = "*"
//	output = "console"
//	options = '{"level": "debug"}'
//
// Environment variables override the file: INPUTROUTER_LOG_LEVEL,
// INPUTROUTER_METRICS_LISTEN and INPUTROUTER_METRICS_ENABLED.
package config
