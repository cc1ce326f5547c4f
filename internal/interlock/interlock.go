// Package interlock provides the frame interlock, a shared/exclusive lock
// that serializes event application against exclusive reconfiguration.
//
// Unlike sync.RWMutex, the interlock gates new shared acquisitions as soon
// as any exclusive request is pending, and releases the queued shared
// waiters only once every pending exclusive request has been served.
// Shared holders already inside must still drain before the exclusive
// holder proceeds. No operation has a timeout.
package interlock

import (
	"sync"
	"time"
)

// Frame is the frame interlock. The zero value is not usable; use New.
type Frame struct {
	mu sync.Mutex

	// eclear is signalled when epending drops to zero.
	eclear *sync.Cond
	// zero is signalled when locked drops to zero.
	zero *sync.Cond

	// locked is the number of shared holders, or -1 for one exclusive holder.
	locked int
	// epending is the number of goroutines waiting for exclusive access.
	epending int

	onExclusiveWait func(time.Duration)
}

// Option configures a Frame.
type Option func(*Frame)

// WithExclusiveWaitHook registers fn to receive how long each exclusive
// acquisition waited. fn runs with the interlock's internal mutex released.
func WithExclusiveWaitHook(fn func(time.Duration)) Option {
	return func(f *Frame) {
		f.onExclusiveWait = fn
	}
}

// New creates an unlocked frame interlock.
func New(opts ...Option) *Frame {
	f := &Frame{}
	f.eclear = sync.NewCond(&f.mu)
	f.zero = sync.NewCond(&f.mu)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LockShared acquires the interlock in shared mode. It yields to pending
// exclusive requests before waiting out an exclusive holder.
func (f *Frame) LockShared() {
	f.mu.Lock()
	for f.epending > 0 {
		f.eclear.Wait()
	}
	for f.locked < 0 {
		f.zero.Wait()
	}
	f.locked++
	f.mu.Unlock()
}

// UnlockShared releases a shared hold.
func (f *Frame) UnlockShared() {
	f.mu.Lock()
	if f.locked <= 0 {
		f.mu.Unlock()
		panic("interlock: UnlockShared without shared hold")
	}
	f.locked--
	if f.locked == 0 {
		f.zero.Broadcast()
	}
	f.mu.Unlock()
}

// LockExclusive acquires the interlock in exclusive mode, waiting for all
// shared holders and any other exclusive holder to release.
func (f *Frame) LockExclusive() {
	var start time.Time
	waited := false

	f.mu.Lock()
	if f.locked != 0 {
		waited = true
		start = time.Now()
		f.epending++
		for f.locked != 0 {
			f.zero.Wait()
		}
		f.epending--
		if f.epending == 0 {
			f.eclear.Broadcast()
		}
	}
	f.locked = -1
	f.mu.Unlock()

	if f.onExclusiveWait != nil {
		var d time.Duration
		if waited {
			d = time.Since(start)
		}
		f.onExclusiveWait(d)
	}
}

// UnlockExclusive releases the exclusive hold.
func (f *Frame) UnlockExclusive() {
	f.mu.Lock()
	if f.locked != -1 {
		f.mu.Unlock()
		panic("interlock: UnlockExclusive without exclusive hold")
	}
	f.locked = 0
	f.zero.Broadcast()
	f.mu.Unlock()
}

// Shared runs fn while holding the interlock in shared mode.
func (f *Frame) Shared(fn func()) {
	f.LockShared()
	defer f.UnlockShared()
	fn()
}

// Exclusive runs fn while holding the interlock in exclusive mode.
func (f *Frame) Exclusive(fn func()) {
	f.LockExclusive()
	defer f.UnlockExclusive()
	fn()
}

// State is a point-in-time view of the interlock counters.
type State struct {
	// Locked is the shared holder count, or -1 while held exclusively.
	Locked int
	// Pending is the number of waiting exclusive requests.
	Pending int
}

// State returns the current counters.
func (f *Frame) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{Locked: f.locked, Pending: f.epending}
}
