package des

import (
	"container/heap"
	"fmt"
)

// Scheduler is the event-ordered clock. It holds exactly one logical
// thread of control: actions run to completion without yielding, and
// all apparent concurrency is the interleaving of scheduled events on
// the shared timeline (see NON-GOALS, §5).
//
// Thread-safety: NOT thread-safe. Must be driven from a single goroutine.
type Scheduler struct {
	queue   eventHeap
	now     float64
	nextSeq uint64
}

// NewScheduler returns an empty scheduler with its clock at zero.
func NewScheduler() *Scheduler {
	s := &Scheduler{queue: make(eventHeap, 0)}
	heap.Init(&s.queue)
	return s
}

// Schedule enqueues action to run at CurrentTime()+delay. delay must
// be non-negative: scheduling into the past is a programming error and
// must fail loudly rather than silently reordering the timeline.
func (s *Scheduler) Schedule(delay float64, action Action) {
	if delay < 0 {
		panic(fmt.Sprintf("des: negative delay %g scheduled at t=%g", delay, s.now))
	}
	s.nextSeq++
	heap.Push(&s.queue, &Event{time: s.now + delay, seq: s.nextSeq, run: action})
}

// ScheduleAt enqueues action at an absolute simulated time. t must not
// precede CurrentTime().
func (s *Scheduler) ScheduleAt(t float64, action Action) {
	if t < s.now {
		panic(fmt.Sprintf("des: event scheduled in the past: t=%g < now=%g", t, s.now))
	}
	s.nextSeq++
	heap.Push(&s.queue, &Event{time: t, seq: s.nextSeq, run: action})
}

// CurrentTime returns the timestamp of the most recently dequeued
// event, or 0 before Run has started.
func (s *Scheduler) CurrentTime() float64 { return s.now }

// Pending reports how many events remain queued.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Run drains the queue in (time, seq) order. For each event: advance
// the clock to the event's time, execute its action, repeat. Actions
// may schedule further events, including at the current time — those
// execute after every already-queued event at that same timestamp,
// because their seq is strictly greater. Run returns once the queue
// is empty; there is no other termination condition.
func (s *Scheduler) Run() {
	for s.queue.Len() > 0 {
		e := heap.Pop(&s.queue).(*Event)
		if e.time < s.now {
			panic(fmt.Sprintf("des: clock went backwards: %g < %g", e.time, s.now))
		}
		s.now = e.time
		e.run(s.now)
	}
}
