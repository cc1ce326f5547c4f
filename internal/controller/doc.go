// Package controller implements the controller registry, the stage after
// the filter chain.
//
// A controller binds an input name (a device name or "*") to an output
// name and is backed by a driver type. RouteEvent offers an event to each
// controller whose input matches the event's device, newest controller
// first. A driver's Event method answers with an int:
//
//	0   consumed: the event is released and routing stops
//	>0  declined: try the next controller
//	<0  error: routing stops and the error is reported
//
// Events no controller consumes are returned to the caller for delivery to
// the application.
//
// Controllers are created during configuration. Create, Destroy and
// RouteEvent are safe for concurrent use, but drivers must tolerate
// concurrent Event calls from different device goroutines.
package controller
