// Package injector adapts logical flows into packet streams and
// observes delivery to close barriers — the translation layer between
// the job state machine's workload model and the packet-level fabric
// (§4.5).
package injector

import (
	"fmt"
	"sort"

	"github.com/netsim/fabric-sim/internal/fabric"
	"github.com/netsim/fabric-sim/internal/netaddr"
)

// Flow is the minimal shape the injector needs: a globally unique ID,
// the endpoints by node ID, and a byte count. The job state machine's
// Flow type embeds this and adds scheduling/timing fields.
type Flow struct {
	FlowID    string
	SrcNodeID string
	DstNodeID string
	SizeBytes int
}

// CompletionFunc is invoked exactly once when a flow's expected bytes
// have all arrived at its destination.
type CompletionFunc func(flowID string, now float64)

type pendingFlow struct {
	dstIP      netaddr.IP
	expected   int
	received   int
	onComplete CompletionFunc
	done       bool
}

// Injector is the single point of truth for in-flight flow byte
// accounting. It subscribes to every host in the fabric so it never
// misses a delivery, regardless of which host receives it.
type Injector struct {
	hosts map[string]*fabric.Host
	flows map[string]*pendingFlow
}

// New returns an Injector subscribed to every host in hosts.
func New(hosts map[string]*fabric.Host) *Injector {
	inj := &Injector{
		hosts: hosts,
		flows: make(map[string]*pendingFlow),
	}
	for _, h := range hosts {
		h.Subscribe(inj)
	}
	return inj
}

// Inject resolves flow's endpoints, registers it for byte-accounted
// completion tracking, and hands it to the source host to fragment
// into packets (§4.5). A zero-byte flow completes immediately, at the
// time of this call, without emitting any packets — the boundary case
// called out in §8.
func (inj *Injector) Inject(flow Flow, now float64, onComplete CompletionFunc) error {
	src, ok := inj.hosts[flow.SrcNodeID]
	if !ok {
		return fmt.Errorf("injector: unknown source node %q", flow.SrcNodeID)
	}
	dst, ok := inj.hosts[flow.DstNodeID]
	if !ok {
		return fmt.Errorf("injector: unknown destination node %q", flow.DstNodeID)
	}

	if flow.SizeBytes == 0 {
		onComplete(flow.FlowID, now)
		return nil
	}

	inj.flows[flow.FlowID] = &pendingFlow{
		dstIP:      dst.IP,
		expected:   flow.SizeBytes,
		onComplete: onComplete,
	}
	src.SendMessage(flow.FlowID, dst.IP, flow.SizeBytes)
	return nil
}

// OnDeliver implements fabric.Observer. For every packet delivered to
// any host, it checks whether the packet belongs to a registered flow
// addressed to that host, and if so accounts its bytes toward
// completion (§4.5: byte-accounted, not sequence-accounted, because
// the model assumes lossless delivery and a drop is meant to surface
// as a stalled barrier, not a synthesized completion).
func (inj *Injector) OnDeliver(host *fabric.Host, pkt *fabric.Packet, now float64) {
	pf, ok := inj.flows[pkt.Transport.FlowID]
	if !ok || pf.done {
		return
	}
	if host.IP != pf.dstIP {
		return
	}

	pf.received += pkt.L3.Size
	if pf.received > 2*pf.expected {
		panic(fmt.Sprintf("injector: flow %s received %d bytes, more than 2x expected %d (accounting bug)",
			pkt.Transport.FlowID, pf.received, pf.expected))
	}

	if pf.received >= pf.expected {
		pf.done = true
		delete(inj.flows, pkt.Transport.FlowID)
		pf.onComplete(pkt.Transport.FlowID, now)
	}
}

// Pending reports the flow IDs currently registered and awaiting
// completion — used by the stalled-run report (§7). Sorted so the
// report is independent of map iteration order (§5): identical
// config and seed must produce an identical report.
func (inj *Injector) Pending() []string {
	ids := make([]string, 0, len(inj.flows))
	for id := range inj.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var _ fabric.Observer = (*Injector)(nil)
