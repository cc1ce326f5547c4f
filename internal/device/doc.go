// Package device holds the per-device element model and the device driver
// contract.
//
// A device driver is registered under a type name and creates devices from
// a Descriptor. Each device owns a Model, built from textual element specs,
// and runs one producer goroutine that feeds events to a Dispatcher. The
// dispatcher applies each event to the model before filtering, so the model
// always reflects the raw device state.
//
// Only the owning producer goroutine mutates a Model; reads from other
// goroutines must happen under the frame interlock.
package device
