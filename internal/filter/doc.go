// Package filter implements the ordered filter chain every event passes
// through before it reaches the controllers.
//
// A Chain is a list of (spec, filter) entries. Process walks the entries
// from the head, invoking each filter whose spec matches the event. The
// filter returns one of five statuses:
//
//	Continue  keep the (possibly modified) event, go to the next match
//	Restart   rescan the chain from the head, e.g. after renaming the event
//	Discard   release the event and stop
//	Deliver   stop filtering and hand the event on as is
//	Error     abort processing and report the failure
//
// # Vector Decomposition
//
// When an entry's spec names a vector index (joy1.stick.1) and the event is
// a whole vector, the filter does not see the vector. Instead it sees a
// synthetic valuator event holding that one component. If the filter left
// the sub-event's identity alone, the component is merged back into the
// vector. If it renamed the sub-event or changed its type, the sub-event is
// "mapped" and becomes a new event queued ahead of the chain's remaining
// work. The status translation is:
//
//	inner     unmapped                    mapped
//	Error     abort                       abort
//	Continue  merge back, continue        requeue sub-event, continue
//	Restart   requeue, restart outer      requeue, restart outer
//	Discard   drop sub-event, continue    drop sub-event, continue
//	Deliver   drop sub-event, continue    queue sub-event for delivery, continue
//
// Entries are added during configuration. A Chain is not safe for
// concurrent modification, but Process may run from many goroutines once
// the chain is built.
package filter
