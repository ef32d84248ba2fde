package fabric

import (
	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/netaddr"
)

// Observer is notified every time a host delivers a packet addressed
// to it. This is the flow injector's hook into delivery — a
// first-class publish/subscribe surface, not a wrapped delivery method
// (§9 design notes).
type Observer interface {
	OnDeliver(host *Host, pkt *Packet, now float64)
}

// Kind distinguishes the two NetworkNode variants (§3).
type Kind int

const (
	KindHost Kind = iota
	KindSwitch
)

// Switch forwards packets between its ports using longest-prefix-match
// routing and one of the multipath selection modes (§4.3.3).
type Switch struct {
	ID        string
	Ports     []*Port
	Routes    *netaddr.Table
	Config    RoutingConfig
	DropCount int

	flowlets map[string]*flowletState
}

// NewSwitch returns a switch with an empty routing table.
func NewSwitch(id string, cfg RoutingConfig) *Switch {
	return &Switch{
		ID:       id,
		Routes:   netaddr.NewTable(),
		Config:   cfg,
		flowlets: make(map[string]*flowletState),
	}
}

// AddPort appends a new outgoing port bound to link l in direction d,
// returning its index.
func (s *Switch) AddPort(sched *des.Scheduler, l *Link, d Direction) int {
	idx := len(s.Ports)
	s.Ports = append(s.Ports, NewPort(idx, sched, l, d))
	return idx
}

// SelectPortForPacket implements §4.3.3's four-step dispatch: resolve
// LPM candidates intersected with live links, drop if none, dispatch
// on routing mode, then decrement TTL and drop if it hits zero.
// Returns (portIndex, true) on success, or (0, false) if the packet
// should be dropped — SelectPortForPacket itself marks pkt.L3.Dropped
// and increments DropCount in that case.
func (s *Switch) SelectPortForPacket(pkt *Packet, now float64) (int, bool) {
	candidates := LPMCandidates(s.Routes, s.Ports, pkt.L3.Tuple.DstIP)
	if len(candidates) == 0 {
		s.drop(pkt)
		return 0, false
	}

	var chosen int
	switch s.Config.Mode {
	case ModeECMP:
		chosen = selectECMP(pkt, candidates)
	case ModeFlowlet:
		chosen = selectFlowlet(pkt, candidates, s.Config, now, s.flowlets)
	case ModeAdaptive:
		chosen = selectAdaptive(pkt, candidates, s.Ports)
	default:
		chosen = selectECMP(pkt, candidates)
	}

	pkt.L3.TTL--
	if pkt.L3.TTL <= 0 {
		s.drop(pkt)
		return 0, false
	}

	return chosen, true
}

func (s *Switch) drop(pkt *Packet) {
	pkt.L3.Dropped = true
	s.DropCount++
}

// Deliver receives a packet arriving on one of the switch's links and
// forwards it to the selected outgoing port, or drops it.
func (s *Switch) Deliver(pkt *Packet, now float64) {
	pkt.RecordHop(s.ID, now)
	idx, ok := s.SelectPortForPacket(pkt, now)
	if !ok {
		return
	}
	s.Ports[idx].Enqueue(pkt)
}

// Host is a network endpoint: it fragments outbound messages into MTU
// packets and notifies subscribed observers when an inbound packet
// addresses its IP.
type Host struct {
	ID         string
	IP         netaddr.IP
	MTU        int
	DefaultTTL int
	Port       *Port

	observers []Observer
}

// NewHost returns a host with no outbound port yet attached — call
// AttachPort once the host's link has been created by the topology
// builder.
func NewHost(id string, ip netaddr.IP, mtu, defaultTTL int) *Host {
	return &Host{ID: id, IP: ip, MTU: mtu, DefaultTTL: defaultTTL}
}

// AttachPort sets the host's single outbound port.
func (h *Host) AttachPort(p *Port) { h.Port = p }

// Subscribe registers an observer to be notified of every packet this
// host receives that is addressed to it.
func (h *Host) Subscribe(o Observer) {
	h.observers = append(h.observers, o)
}

// SendMessage fragments a sessionID-tagged message of sizeBytes into
// ceil(sizeBytes/MTU) packets and hands each to the host's outbound
// port. The host never blocks: every packet of the message is queued
// at the time of this call (§4.3.4).
func (h *Host) SendMessage(sessionID string, dstIP netaddr.IP, sizeBytes int) {
	if sizeBytes == 0 {
		return
	}
	n := (sizeBytes + h.MTU - 1) / h.MTU
	remaining := sizeBytes
	for i := 0; i < n; i++ {
		size := h.MTU
		if remaining < size {
			size = remaining
		}
		remaining -= size

		pkt := &Packet{
			L3: L3Header{
				Tuple: netaddr.FiveTuple{
					SrcIP: h.IP,
					DstIP: dstIP,
				},
				Seq:  i,
				Size: size,
				TTL:  h.DefaultTTL,
			},
			Transport: TransportHeader{
				FlowID:    sessionID,
				FlowCount: n,
				FlowSeq:   i,
			},
		}
		h.Port.Enqueue(pkt)
	}
}

// Deliver implements the host as a receiver: if the packet addresses
// this host's IP, every subscribed observer is notified.
func (h *Host) Deliver(pkt *Packet, now float64) {
	pkt.RecordHop(h.ID, now)
	if pkt.L3.Tuple.DstIP != h.IP {
		return
	}
	pkt.Track.RecvAt = now
	for _, o := range h.observers {
		o.OnDeliver(h, pkt, now)
	}
}

var (
	_ Deliverable = (*Host)(nil)
	_ Deliverable = (*Switch)(nil)
)
