// Package element defines the typed content carried by device elements and
// input events.
//
// Every logical input on a device is an element with a name and a content
// value. Content is a closed sum type with five variants:
//
//	trigger   - no payload, the event itself is the signal
//	switch    - boolean state
//	valuator  - a scalar with a range (min, max, value)
//	vector    - a fixed-size array of ranged scalars
//	keyboard  - a key code and its pressed state
//
// Elements are declared with a one-line textual spec:
//
//	button0 switch
//	axis0   valuator -1.0 1.0
//	stick   vector 2 -1 1 0  -1 1 0
//	key     keyboard
//
// See Parse for the full grammar.
package element
