package metrics

import (
	"sort"

	"github.com/netsim/fabric-sim/internal/fabric"
	"github.com/netsim/fabric-sim/internal/topology"
)

// PortDepths walks every switch port and every host's NIC port and
// returns its peak queue occupancy over the run (§6 "per-port peak
// queue depths"). The result is sorted by (NodeID, PortIndex) so it is
// independent of Go's randomized map iteration order (§5): two runs
// with identical config and seed must serialize identical metrics.
func PortDepths(fab *topology.Fabric) []PortDepth {
	var out []PortDepth
	for id, sw := range fab.Switches {
		for _, p := range sw.Ports {
			out = append(out, PortDepth{NodeID: id, PortIndex: p.Index, PeakDepth: p.PeakDepth()})
		}
	}
	for id, h := range fab.Hosts {
		if h.Port == nil {
			continue
		}
		out = append(out, PortDepth{NodeID: id, PortIndex: h.Port.Index, PeakDepth: h.Port.PeakDepth()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NodeID != out[j].NodeID {
			return out[i].NodeID < out[j].NodeID
		}
		return out[i].PortIndex < out[j].PortIndex
	})
	return out
}

// DroppedPackets sums every switch's TTL/no-route drop counter and
// every link direction's failed-link drop counter into the run's
// global dropped-packet count (§6).
func DroppedPackets(fab *topology.Fabric) int {
	total := 0
	for _, sw := range fab.Switches {
		total += sw.DropCount
	}
	for _, l := range fab.Links {
		total += l.DroppedCount(fabric.DirAtoB)
		total += l.DroppedCount(fabric.DirBtoA)
	}
	return total
}

// TopologySummaryOf builds the topology section of a Record from a
// built Fabric and the scalable-unit dimensions used to build it.
func TopologySummaryOf(fab *topology.Fabric, leaves, spines, serversPerLeaf int) TopologySummary {
	failed := 0
	for _, l := range fab.Links {
		if l.Failed {
			failed++
		}
	}
	return TopologySummary{
		Leaves:         leaves,
		Spines:         spines,
		ServersPerLeaf: serversPerLeaf,
		TotalHosts:     len(fab.Hosts),
		TotalSwitches:  len(fab.Switches),
		TotalLinks:     len(fab.Links),
		FailedLinks:    failed,
	}
}
