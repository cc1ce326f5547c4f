package filter

import (
	"fmt"

	"github.com/mpconte/VR-Projects-sub003/internal/element"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
)

// Default processing limits.
const (
	DefaultMaxRestarts  = 64
	DefaultMaxSubEvents = 256
)

// Filter inspects and possibly modifies an event. A non-nil error implies
// Error.
type Filter interface {
	Filter(ev *event.Event) (Status, error)
}

// Func adapts a plain function to the Filter interface.
type Func func(ev *event.Event) Status

// Filter implements Filter.
func (f Func) Filter(ev *event.Event) (Status, error) {
	return f(ev), nil
}

// Where selects the end of the chain an entry is inserted at.
type Where uint8

const (
	// Tail appends the entry; it runs after existing entries.
	Tail Where = iota
	// Head prepends the entry; it runs before existing entries.
	Head
)

// ParseWhere parses "head" or "tail". The empty string is Tail.
func ParseWhere(s string) (Where, error) {
	switch s {
	case "", "tail":
		return Tail, nil
	case "head":
		return Head, nil
	}
	return Tail, fmt.Errorf("%w: where must be head or tail, got %q", ErrBadOption, s)
}

// Entry binds a filter to the events selected by Spec.
type Entry struct {
	Spec   event.Spec
	Filter Filter

	// Name labels the entry in logs and metrics.
	Name string
}

// String returns the entry label.
func (e *Entry) String() string {
	if e.Name != "" {
		return e.Name + "@" + e.Spec.String()
	}
	return e.Spec.String()
}

// Observer is told the outcome of every filter invocation.
type Observer func(entry *Entry, ev *event.Event, status Status)

// Option configures a Chain.
type Option func(*Chain)

// WithMaxRestarts bounds how many times one event may restart the chain.
func WithMaxRestarts(n int) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxRestarts = n
		}
	}
}

// WithMaxSubEvents bounds how many sub-events one Process call may queue.
func WithMaxSubEvents(n int) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxSubEvents = n
		}
	}
}

// WithObserver registers an observer for filter outcomes.
func WithObserver(obs Observer) Option {
	return func(c *Chain) {
		c.observer = obs
	}
}

// Chain is an ordered list of filter entries.
type Chain struct {
	entries      []*Entry
	maxRestarts  int
	maxSubEvents int
	observer     Observer
}

// NewChain creates an empty chain.
func NewChain(opts ...Option) *Chain {
	c := &Chain{
		maxRestarts:  DefaultMaxRestarts,
		maxSubEvents: DefaultMaxSubEvents,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add inserts f for spec at the given end of the chain.
func (c *Chain) Add(spec event.Spec, f Filter, where Where) *Entry {
	return c.AddEntry(&Entry{Spec: spec, Filter: f}, where)
}

// AddEntry inserts a prepared entry.
func (c *Chain) AddEntry(e *Entry, where Where) *Entry {
	if where == Head {
		c.entries = append([]*Entry{e}, c.entries...)
	} else {
		c.entries = append(c.entries, e)
	}
	return e
}

// AddFilter parses spec in dotted form and inserts f.
func (c *Chain) AddFilter(spec string, f Filter, where Where) (*Entry, error) {
	s, err := event.ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: nil filter for %s", ErrBadOption, spec)
	}
	return c.Add(s, f, where), nil
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Entries returns the entries in processing order.
func (c *Chain) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// queued is an event waiting in a Process call's work queue.
type queued struct {
	ev      *event.Event
	deliver bool
}

// run holds the state of one Process call.
type run struct {
	chain     *Chain
	queue     []queued
	delivered []*event.Event
	fresh     []queued
	subEvents int
}

// Process routes ev through the chain and returns the events that survived
// filtering, in completion order. Process takes ownership of ev: discarded
// events are released, survivors are handed back to the caller.
//
// Sub-events created by vector decomposition are processed in the same
// call, ahead of any earlier queued work, and appear in the result if they
// survive. On error nothing is released and a *ProcessError describes the
// events the caller now owns.
func (c *Chain) Process(ev *event.Event) ([]*event.Event, error) {
	if ev == nil {
		return nil, nil
	}

	r := &run{chain: c, queue: []queued{{ev: ev}}}
	for len(r.queue) > 0 {
		q := r.queue[0]
		r.queue = r.queue[1:]

		if q.deliver {
			r.delivered = append(r.delivered, q.ev)
			continue
		}

		keep, err := r.walk(q.ev)
		if err != nil {
			err.Delivered = r.delivered
			err.Pending = append(r.freshEvents(), r.queueEvents()...)
			return nil, err
		}
		if keep {
			r.delivered = append(r.delivered, q.ev)
		}

		if len(r.fresh) > 0 {
			r.queue = append(r.fresh, r.queue...)
			r.fresh = nil
		}
	}
	return r.delivered, nil
}

// walk runs one event through the chain. It returns whether the event
// survived. Discarded events are released here.
func (r *run) walk(ev *event.Event) (bool, *ProcessError) {
	restarts := 0
	entries := r.chain.entries

	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if !event.Matches(ev, entry.Spec) {
			continue
		}

		var status Status
		if entry.Spec.Indexed() && ev.Index < 0 {
			var err error
			status, err = r.decompose(entry, ev)
			if err != nil {
				return false, &ProcessError{Entry: entry, Event: ev, Err: err}
			}
			if status != Restart {
				continue
			}
		} else {
			var err error
			status, err = invoke(entry.Filter, ev)
			r.observe(entry, ev, status)
			switch status {
			case Continue:
				continue
			case Discard:
				ev.Release()
				return false, nil
			case Deliver:
				return true, nil
			case Error:
				return false, &ProcessError{Entry: entry, Event: ev, Err: err}
			}
		}

		// Restart
		restarts++
		if restarts > r.chain.maxRestarts {
			return false, &ProcessError{Entry: entry, Event: ev, Err: ErrRestartLimit}
		}
		i = -1
	}
	return true, nil
}

// decompose runs entry's filter on one component of the vector event ev and
// translates the result into an outer status: Continue or Restart.
func (r *run) decompose(entry *Entry, ev *event.Event) (Status, error) {
	vec := ev.Content.(*element.VectorContent)
	idx := entry.Spec.Index
	comp, ok := vec.Component(idx)
	if !ok {
		return Continue, nil
	}

	sub := &event.Event{
		Device:    ev.Device,
		Elem:      ev.Elem,
		Index:     idx,
		Timestamp: ev.Timestamp,
		Content:   comp,
	}

	status, err := invoke(entry.Filter, sub)
	r.observe(entry, sub, status)

	mapped := sub.Device != ev.Device || sub.Elem != ev.Elem || sub.Type() != element.Valuator

	switch status {
	case Error:
		sub.Release()
		return Error, err

	case Continue:
		if !mapped {
			vec.SetComponent(idx, sub.Content.(*element.ValuatorContent))
			sub.Release()
			return Continue, nil
		}
		return Continue, r.requeue(sub, false)

	case Restart:
		return Restart, r.requeue(sub, false)

	case Discard:
		sub.Release()
		return Continue, nil

	case Deliver:
		if !mapped {
			sub.Release()
			return Continue, nil
		}
		return Continue, r.requeue(sub, true)
	}
	return Continue, nil
}

// requeue schedules a synthesized event for processing once the current
// event's walk finishes.
func (r *run) requeue(ev *event.Event, deliver bool) error {
	r.subEvents++
	if r.subEvents > r.chain.maxSubEvents {
		ev.Release()
		return ErrQueueOverflow
	}
	r.fresh = append(r.fresh, queued{ev: ev, deliver: deliver})
	return nil
}

func (r *run) observe(entry *Entry, ev *event.Event, status Status) {
	if r.chain.observer != nil {
		r.chain.observer(entry, ev, status)
	}
}

func (r *run) freshEvents() []*event.Event {
	out := make([]*event.Event, 0, len(r.fresh))
	for _, q := range r.fresh {
		out = append(out, q.ev)
	}
	return out
}

func (r *run) queueEvents() []*event.Event {
	out := make([]*event.Event, 0, len(r.queue))
	for _, q := range r.queue {
		out = append(out, q.ev)
	}
	return out
}
