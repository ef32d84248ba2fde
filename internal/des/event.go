// Package des implements the discrete-event simulation engine: a
// monotonic clock driven by a stable min-heap priority queue.
package des

// Action is the callable dispatched when an event is popped off the
// queue. It receives the simulated time the event fired at.
type Action func(now float64)

// Event is a single scheduled occurrence: a point in time, a
// tie-breaking sequence number, and the action to run.
type Event struct {
	time float64
	seq  uint64
	run  Action
}

// Time returns the simulated timestamp this event is scheduled for.
func (e *Event) Time() float64 { return e.time }

// Seq returns the insertion-order tie-breaker.
func (e *Event) Seq() uint64 { return e.seq }
