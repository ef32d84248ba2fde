package fabric

import (
	"fmt"

	"github.com/netsim/fabric-sim/internal/des"
)

// Direction selects one side of a full-duplex link.
type Direction int

const (
	// DirAtoB is the direction from the link's A endpoint to its B endpoint.
	DirAtoB Direction = 0
	// DirBtoA is the direction from the link's B endpoint to its A endpoint.
	DirBtoA Direction = 1
)

// Deliverable receives a packet arriving from a link.
type Deliverable interface {
	Deliver(pkt *Packet, now float64)
}

// Link is a full-duplex connection between two nodes: a bandwidth, a
// propagation delay, and (when failed) a black hole. Each direction
// tracks its own next-available-time so the two directions never
// contend with each other (§4.3.1).
type Link struct {
	ID           string
	A, B         Deliverable
	BandwidthBps float64
	PropDelayS   float64
	Failed       bool

	nextAvailable [2]float64
	dropped       [2]int

	sched *des.Scheduler
}

// NewLink constructs a link between a and b with the given bandwidth
// (bits/sec) and one-way propagation delay (seconds).
func NewLink(id string, sched *des.Scheduler, a, b Deliverable, bandwidthBps, propDelayS float64) *Link {
	return &Link{
		ID:           id,
		A:            a,
		B:            b,
		BandwidthBps: bandwidthBps,
		PropDelayS:   propDelayS,
		sched:        sched,
	}
}

// NextAvailable returns the next time the given direction is free to
// begin transmitting. Non-decreasing while the link is operational
// (an invariant of §3).
func (l *Link) NextAvailable(d Direction) float64 {
	return l.nextAvailable[d]
}

// DroppedCount returns how many packets a failed link has dropped in
// the given direction.
func (l *Link) DroppedCount(d Direction) int {
	return l.dropped[d]
}

// Transmit commits pkt to direction d at the scheduler's current time,
// per the formula in §4.3.1:
//
//	earliest_start = max(now, next_available_time[d])
//	serialization  = (bytes * 8) / bandwidth_bps
//	arrival_time   = earliest_start + serialization + propagation_delay
//	next_available_time[d] = earliest_start + serialization
//
// A failed link drops the packet instead: it increments the
// direction's dropped counter and never schedules delivery.
// Transmit returns the time the link becomes free again in direction
// d (now, for a failed link). Port.drain does not use this value; it
// asks EarliestStart before popping the next packet.
func (l *Link) Transmit(pkt *Packet, d Direction, now float64) float64 {
	if l.Failed {
		l.dropped[d]++
		pkt.L3.Dropped = true
		return now
	}
	if l.BandwidthBps <= 0 {
		panic(fmt.Sprintf("fabric: link %s has non-positive bandwidth", l.ID))
	}

	earliestStart := now
	if l.nextAvailable[d] > earliestStart {
		earliestStart = l.nextAvailable[d]
	}
	serialization := float64(pkt.L3.Size) * 8 / l.BandwidthBps
	arrival := earliestStart + serialization + l.PropDelayS
	l.nextAvailable[d] = earliestStart + serialization

	dst := l.B
	if d == DirBtoA {
		dst = l.A
	}
	delay := arrival - now
	l.sched.Schedule(delay, func(t float64) {
		dst.Deliver(pkt, t)
	})
	return l.nextAvailable[d]
}

// EarliestStart reports when direction d would next be free to begin
// transmitting a packet offered at time now, without committing the
// transmission. Used by Port.drain to decide whether to pop the head
// of its queue now or reschedule for later.
func (l *Link) EarliestStart(now float64, d Direction) float64 {
	if l.nextAvailable[d] > now {
		return l.nextAvailable[d]
	}
	return now
}
