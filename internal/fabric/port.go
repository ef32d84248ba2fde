package fabric

import (
	"github.com/netsim/fabric-sim/internal/des"
)

// Port belongs to one NetworkNode and transmits on one end of one
// Link. It holds a FIFO queue of outbound packets, a drain-scheduled
// guard to prevent double-booking a drain event, and peak/occupancy
// counters for metrics.
type Port struct {
	Index     int
	Link      *Link
	Direction Direction

	queue          []*Packet
	drainScheduled bool
	peakDepth      int
	totalDequeued  int

	sched *des.Scheduler
}

// NewPort attaches a port at index idx to link l, transmitting in
// direction d.
func NewPort(idx int, sched *des.Scheduler, l *Link, d Direction) *Port {
	return &Port{Index: idx, Link: l, Direction: d, sched: sched}
}

// Depth returns the current queue occupancy.
func (p *Port) Depth() int { return len(p.queue) }

// PeakDepth returns the highest occupancy this port has ever reached.
func (p *Port) PeakDepth() int { return p.peakDepth }

// Enqueue appends pkt to the tail of the FIFO queue. If no drain is
// already scheduled, one is scheduled for the current time — this
// preserves FIFO order and never double-books the link (§4.3.2).
func (p *Port) Enqueue(pkt *Packet) {
	p.queue = append(p.queue, pkt)
	if len(p.queue) > p.peakDepth {
		p.peakDepth = len(p.queue)
	}
	if !p.drainScheduled {
		p.drainScheduled = true
		p.sched.Schedule(0, p.drain)
	}
}

// drain implements the three-step loop of §4.3.2: if the queue is
// empty, clear the flag and stop. Otherwise peek the head packet; if
// the link's direction isn't free yet, reschedule drain for when it
// will be, without popping. Otherwise pop, transmit, and loop
// immediately (same timestamp, next seq) by rescheduling at delay 0.
func (p *Port) drain(now float64) {
	if len(p.queue) == 0 {
		p.drainScheduled = false
		return
	}

	head := p.queue[0]
	earliest := p.Link.EarliestStart(now, p.Direction)
	if earliest > now {
		p.sched.ScheduleAt(earliest, p.drain)
		return
	}

	p.queue = p.queue[1:]
	p.totalDequeued++
	p.Link.Transmit(head, p.Direction, now)
	p.sched.Schedule(0, p.drain)
}
