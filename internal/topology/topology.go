// Package topology builds a fabric.Switch/fabric.Host graph and
// routing tables from a config.TopologyConfig, per the leaf-spine
// "AI factory scalable unit" layout of §6.
package topology

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/netsim/fabric-sim/internal/config"
	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/fabric"
	"github.com/netsim/fabric-sim/internal/netaddr"
)

// Fabric is the built network: every host and switch, plus the links
// connecting them, addressable by ID for scenario wiring.
type Fabric struct {
	Hosts    map[string]*fabric.Host
	Switches map[string]*fabric.Switch
	Links    []*fabric.Link

	// HostOrder preserves a deterministic host ordering for scenario
	// builders (e.g. round-robin participant selection).
	HostOrder []string
}

// subnetBase is the /8 reserved for the simulated fabric's address
// space: 10.<leaf>.<server>.1.
const subnetBase = 10 << 24

func hostIP(leaf, server int) netaddr.IP {
	return netaddr.IP(subnetBase | leaf<<16 | server<<8 | 1)
}

func leafSubnet(leaf int) (netaddr.Prefix, error) {
	return netaddr.NewPrefix(netaddr.IP(subnetBase|leaf<<16), 16)
}

func routingMode(s string) fabric.Mode {
	switch s {
	case "adaptive":
		return fabric.ModeAdaptive
	case "flowlet":
		return fabric.ModeFlowlet
	default:
		return fabric.ModeECMP
	}
}

// uplink records one leaf-to-spine physical link and the port indices
// it occupies at each endpoint, for use by failure injection.
type uplink struct {
	link         *fabric.Link
	leaf, spine  int
	leafPortIdx  int
	spinePortIdx int
}

// Build constructs hosts, leaf switches, and spine switches from cfg,
// wires links with the configured bandwidth and propagation delay, and
// populates every switch's LPM routing table. rng drives link-failure
// selection (subsystem "link-failure", per §9 PRNG discipline).
//
// Builders must guarantee connectivity or fail loudly (§4.3.5): Build
// returns an error rather than producing a fabric with an unreachable
// destination.
func Build(sched *des.Scheduler, cfg config.TopologyConfig, rng *rand.Rand) (*Fabric, error) {
	su := cfg.AIFactorySU
	if su.Leaves <= 0 || su.Spines <= 0 || su.ServersPerLeaf <= 0 {
		return nil, fmt.Errorf("topology: ai_factory_su dimensions must be positive (leaves=%d spines=%d servers_per_leaf=%d)",
			su.Leaves, su.Spines, su.ServersPerLeaf)
	}

	mode := routingMode(cfg.Routing.Mode)
	routeCfg := fabric.RoutingConfig{
		Mode:                   mode,
		FlowletPacketThreshold: cfg.Routing.ECMPFlowletNPackets,
		FlowletIdleGapS:        cfg.Routing.FlowletIdleGapS,
	}

	f := &Fabric{
		Hosts:    make(map[string]*fabric.Host),
		Switches: make(map[string]*fabric.Switch),
	}

	leaves := make([]*fabric.Switch, su.Leaves)
	for i := 0; i < su.Leaves; i++ {
		leaves[i] = fabric.NewSwitch(fmt.Sprintf("leaf%d", i), routeCfg)
		f.Switches[leaves[i].ID] = leaves[i]
	}
	spines := make([]*fabric.Switch, su.Spines)
	for i := 0; i < su.Spines; i++ {
		spines[i] = fabric.NewSwitch(fmt.Sprintf("spine%d", i), routeCfg)
		f.Switches[spines[i].ID] = spines[i]
	}

	// Servers: each host gets a single port to its leaf.
	for li := 0; li < su.Leaves; li++ {
		for si := 0; si < su.ServersPerLeaf; si++ {
			ip := hostIP(li, si)
			id := fmt.Sprintf("leaf%d-srv%d", li, si)
			host := fabric.NewHost(id, ip, cfg.MTU, cfg.TTL)
			f.Hosts[id] = host
			f.HostOrder = append(f.HostOrder, id)

			link := fabric.NewLink(fmt.Sprintf("%s-link", id), sched, host, leaves[li],
				cfg.Links.Bandwidth.ServerToLeaf, cfg.Links.PropDelayS)
			f.Links = append(f.Links, link)

			hostPort := fabric.NewPort(0, sched, link, fabric.DirAtoB)
			host.AttachPort(hostPort)
			leafPortIdx := leaves[li].AddPort(sched, link, fabric.DirBtoA)

			hostPrefix, err := netaddr.NewPrefix(ip, 32)
			if err != nil {
				return nil, err
			}
			leaves[li].Routes.AddRoute(hostPrefix, leafPortIdx)
		}
	}

	// Leaf-to-spine uplinks, with leaf_to_spine_parallel_links parallel
	// physical links per (leaf, spine) pair, each an independent ECMP
	// candidate.
	parallel := su.LeafToSpineParallelLinks
	if parallel <= 0 {
		parallel = 1
	}

	var uplinks []uplink
	for li := 0; li < su.Leaves; li++ {
		for si := 0; si < su.Spines; si++ {
			for k := 0; k < parallel; k++ {
				link := fabric.NewLink(fmt.Sprintf("leaf%d-spine%d-%d", li, si, k), sched,
					leaves[li], spines[si], cfg.Links.Bandwidth.LeafToSpine, cfg.Links.PropDelayS)
				f.Links = append(f.Links, link)

				leafPortIdx := leaves[li].AddPort(sched, link, fabric.DirAtoB)
				spinePortIdx := spines[si].AddPort(sched, link, fabric.DirBtoA)

				uplinks = append(uplinks, uplink{
					link: link, leaf: li, spine: si,
					leafPortIdx: leafPortIdx, spinePortIdx: spinePortIdx,
				})
			}
		}
	}

	if err := injectFailures(uplinks, cfg.Links.FailurePercent, rng, su); err != nil {
		return nil, err
	}

	// Leaf default route: anything outside this leaf's own subnet goes
	// up to any (live) spine-facing port. Failed links stay registered
	// as routes — LPMCandidates filters them out at lookup time — so
	// that a later topology mutation re-validating the link would not
	// need to rebuild the table.
	defaultPrefix, err := netaddr.NewPrefix(0, 0)
	if err != nil {
		return nil, err
	}
	for _, u := range uplinks {
		leaves[u.leaf].Routes.AddRoute(defaultPrefix, u.leafPortIdx)
	}

	// Spine routes: one route per leaf subnet, candidates are every
	// downlink port toward that leaf.
	for _, u := range uplinks {
		subnet, err := leafSubnet(u.leaf)
		if err != nil {
			return nil, err
		}
		spines[u.spine].Routes.AddRoute(subnet, u.spinePortIdx)
	}

	if err := verifyConnectivity(leaves, spines, su); err != nil {
		return nil, err
	}

	sort.Strings(f.HostOrder)
	return f, nil
}

// injectFailures marks floor(failurePercent/100 * len(uplinks)) leaf-
// to-spine links as failed, chosen via rng's "link-failure" subsystem
// sequence. Only leaf-to-spine links are eligible: server-to-leaf
// links are each a host's sole connection, so failing one would
// strand that host with no alternate path, which is never "optional"
// redundancy (§4.3.5 only calls out "non-critical" links).
func injectFailures(uplinks []uplink, failurePercent float64, rng *rand.Rand, su config.AIFactorySU) error {
	if failurePercent <= 0 || len(uplinks) == 0 {
		return nil
	}
	n := int(failurePercent / 100 * float64(len(uplinks)))
	if n <= 0 {
		return nil
	}

	order := rng.Perm(len(uplinks))

	liveToSpineCount := make([]int, su.Leaves)
	liveFromLeafCount := make(map[[2]int]int)
	for _, u := range uplinks {
		liveToSpineCount[u.leaf]++
		liveFromLeafCount[[2]int{u.spine, u.leaf}]++
	}

	failed := 0
	for _, idx := range order {
		if failed >= n {
			break
		}
		u := uplinks[idx]
		if liveToSpineCount[u.leaf] <= 1 {
			continue // would strand leaf u.leaf with zero spine uplinks
		}
		if liveFromLeafCount[[2]int{u.spine, u.leaf}] <= 1 {
			continue // would strand spine u.spine's view of leaf u.leaf
		}
		u.link.Failed = true
		liveToSpineCount[u.leaf]--
		liveFromLeafCount[[2]int{u.spine, u.leaf}]--
		failed++
	}

	if failed < n {
		return fmt.Errorf("topology: failure_percent=%.1f requests %d failed links but only %d could be failed without breaking connectivity",
			failurePercent, n, failed)
	}
	return nil
}

// verifyConnectivity fails loudly if any leaf has zero live uplinks,
// or any spine has zero live downlinks to some leaf — the invariant
// injectFailures is supposed to preserve, checked again defensively in
// case of a future change to the failure-selection loop.
func verifyConnectivity(leaves, spines []*fabric.Switch, su config.AIFactorySU) error {
	for li, sw := range leaves {
		candidates, err := netaddr.NewPrefix(0, 0)
		if err != nil {
			return err
		}
		live := sw.Routes.Lookup(candidates.Network)
		liveCount := 0
		for _, p := range live {
			if !sw.Ports[p].Link.Failed {
				liveCount++
			}
		}
		if liveCount == 0 && su.Spines > 0 {
			return fmt.Errorf("topology: leaf%d has no live uplink to any spine", li)
		}
	}
	for si, sw := range spines {
		for li := 0; li < su.Leaves; li++ {
			subnet, err := leafSubnet(li)
			if err != nil {
				return err
			}
			live := sw.Routes.Lookup(subnet.Network)
			liveCount := 0
			for _, p := range live {
				if !sw.Ports[p].Link.Failed {
					liveCount++
				}
			}
			if liveCount == 0 {
				return fmt.Errorf("topology: spine%d has no live downlink to leaf%d", si, li)
			}
		}
	}
	return nil
}
