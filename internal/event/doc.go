// Package event defines input events and the wildcard specs used to select
// them.
//
// An Event names the device and element it came from and carries a typed
// element.Content. Events move through the pipeline with single ownership:
// each stage either hands the event to exactly one next stage or releases
// it. Release may be called once; a second call panics.
//
// A Spec selects events by device, element and vector index:
//
//	joy1.axis0      element axis0 on device joy1
//	*.valuator      any valuator on any device, matched by content type
//	joy1.stick.1    component 1 of vector stick on joy1
//	joy1            everything from joy1
//
// Missing trailing segments and "*" are wildcards.
package event
