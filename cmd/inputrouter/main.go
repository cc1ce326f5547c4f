// Inputrouter reads input devices, filters their events and routes them to
// controllers.
//
// Usage:
//
//	# Run with a configuration file
//	inputrouter run --config router.toml
//
//	# Reload filters and controllers when the file changes
//	inputrouter run --config router.toml --watch
//
//	# Validate a configuration without opening devices
//	inputrouter check --config router.toml
//
//	# Show version information
//	inputrouter version
package main

func main() {
	Execute()
}
