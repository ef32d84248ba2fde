// Package fabric implements the network layer: hosts, switches,
// full-duplex links with serialization and propagation delay, per-port
// FIFO queues with scheduled drains, and longest-prefix-match routing
// with pluggable multipath selection (ECMP, flowlet, adaptive).
package fabric

import "github.com/netsim/fabric-sim/internal/netaddr"

// L3Header carries the routed identity of a packet.
type L3Header struct {
	Tuple   netaddr.FiveTuple
	Seq     int  // sequence number within the flow
	Size    int  // bytes
	TTL     int
	Dropped bool
}

// TransportHeader carries flow accounting fields.
type TransportHeader struct {
	FlowID    string
	FlowCount int // total packets in the flow
	FlowSeq   int // 0-based index within the flow
}

// HopRecord is one entry of a packet's optional hop trail, recorded
// only when verbose tracking is enabled (§3 Packet / Tracking).
type HopRecord struct {
	NodeID string
	Time   float64
}

// Tracking holds the optional verbose fields of a packet. Left at its
// zero value (Enabled == false) when verbose tracking is off, so a
// run with tracking disabled pays no allocation cost for it.
type Tracking struct {
	Enabled bool
	Hops    []HopRecord
	SentAt  float64
	RecvAt  float64
}

// Packet is the unit the fabric transmits: an L3 header, a transport
// header, and optional tracking.
type Packet struct {
	L3        L3Header
	Transport TransportHeader
	Track     Tracking
}

// RecordHop appends a hop if tracking is enabled; a no-op otherwise.
func (p *Packet) RecordHop(nodeID string, now float64) {
	if !p.Track.Enabled {
		return
	}
	p.Track.Hops = append(p.Track.Hops, HopRecord{NodeID: nodeID, Time: now})
}
