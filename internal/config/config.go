// Package config defines the structured configuration record the
// simulator core consumes (§6). Loading YAML, parsing CLI flags, and
// logging setup are the caller's concern (cmd/); this package only
// validates the parsed record.
package config

import "fmt"

// RunConfig controls run-level behavior that has no bearing on the
// simulated network itself.
type RunConfig struct {
	FileDebug      bool `yaml:"file_debug"`
	MessageVerbose bool `yaml:"message_verbose"`
	VerboseRoute   bool `yaml:"verbose_route"`
	Visualize      bool `yaml:"visualize"`
}

// AIFactorySU describes one leaf-spine scalable unit.
type AIFactorySU struct {
	Leaves                   int `yaml:"leaves"`
	Spines                   int `yaml:"spines"`
	ServersPerLeaf           int `yaml:"servers_per_leaf"`
	ServerParallelLinks      int `yaml:"server_parallel_links"`
	LeafToSpineParallelLinks int `yaml:"leaf_to_spine_parallel_links"`
}

// RoutingConfig selects the multipath selection policy (§4.3.3).
type RoutingConfig struct {
	Mode                string  `yaml:"mode"` // "ecmp" | "adaptive" | "flowlet"
	ECMPFlowletNPackets int     `yaml:"ecmp_flowlet_n_packets"`
	FlowletIdleGapS     float64 `yaml:"flowlet_idle_gap_s"`
}

// BandwidthConfig holds per-tier link bandwidths in bits/sec.
type BandwidthConfig struct {
	ServerToLeaf float64 `yaml:"server_to_leaf"`
	LeafToSpine  float64 `yaml:"leaf_to_spine"`
}

// LinksConfig configures link failure injection and bandwidth (§4.3.5).
type LinksConfig struct {
	FailurePercent float64         `yaml:"failure_percent"`
	Bandwidth      BandwidthConfig `yaml:"bandwidth_bps"`
	PropDelayS     float64         `yaml:"propagation_delay_s"`
}

// TopologyConfig is the `topology` top-level group of §6.
type TopologyConfig struct {
	Type        string        `yaml:"type"`
	AIFactorySU AIFactorySU   `yaml:"ai_factory_su"`
	Routing     RoutingConfig `yaml:"routing"`
	Links       LinksConfig   `yaml:"links"`
	MaxPath     int           `yaml:"max_path"`
	MTU         int           `yaml:"mtu"`
	TTL         int           `yaml:"ttl"`
}

// MiceConfig configures the background mice-flow injector (§4.4). When
// TracePath is set it takes precedence over distribution sampling
// (explicit flows > CSV trace > distribution sampling).
type MiceConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Seed            int64   `yaml:"seed"`
	StartDelayS     float64 `yaml:"start_delay_s"`
	EndTimeS        float64 `yaml:"end_time_s"`
	InterarrivalS   float64 `yaml:"interarrival_s"`
	ArrivalProcess  string  `yaml:"arrival_process"` // "poisson" | "gamma" | "weibull"
	ArrivalCV       float64 `yaml:"arrival_cv"`
	SizeMeanBytes   float64 `yaml:"size_mean_bytes"`
	SizeStdDevBytes float64 `yaml:"size_stddev_bytes"`
	MinPackets      int     `yaml:"min_packets"`
	MaxPackets      int     `yaml:"max_packets"`
	ForceCrossRack  bool    `yaml:"force_cross_rack"`
	TracePath       string  `yaml:"trace_path"`
}

// ScenarioParams collects the well-known scenario keys the core
// interprets; everything else under `scenario.params` is opaque to the
// core (§6) and is the concern of the scenario builder.
type ScenarioParams struct {
	Steps                     int        `yaml:"steps"`
	Seed                      int64      `yaml:"seed"`
	NumBuckets                int        `yaml:"num_buckets"`
	BucketBytesPerParticipant int64      `yaml:"bucket_bytes_per_participant"`
	GapUs                     float64    `yaml:"gap_us"`
	TFwdBwdMs                 float64    `yaml:"t_fwd_bwd_ms"`
	OptimizerMs               float64    `yaml:"optimizer_ms"`
	Mice                      MiceConfig `yaml:"mice"`
}

// ScenarioConfig is the `scenario` top-level group of §6.
type ScenarioConfig struct {
	Name   string         `yaml:"name"`
	Params ScenarioParams `yaml:"params"`
}

// Config is the full structured configuration record (§6).
type Config struct {
	Run      RunConfig      `yaml:"run"`
	Topology TopologyConfig `yaml:"topology"`
	Scenario ScenarioConfig `yaml:"scenario"`
}

// Validate checks the well-known keys for range and enum errors,
// naming the offending key in the returned error (§7 Configuration
// error taxonomy). It does not validate scenario.params beyond the
// well-known keys used by the core.
func (c *Config) Validate() error {
	t := c.Topology
	switch t.Routing.Mode {
	case "ecmp", "adaptive", "flowlet":
	default:
		return fmt.Errorf("config: topology.routing.mode: unknown value %q (want ecmp, adaptive, or flowlet)", t.Routing.Mode)
	}
	if t.AIFactorySU.Leaves <= 0 {
		return fmt.Errorf("config: topology.ai_factory_su.leaves must be > 0, got %d", t.AIFactorySU.Leaves)
	}
	if t.AIFactorySU.Spines <= 0 {
		return fmt.Errorf("config: topology.ai_factory_su.spines must be > 0, got %d", t.AIFactorySU.Spines)
	}
	if t.AIFactorySU.ServersPerLeaf <= 0 {
		return fmt.Errorf("config: topology.ai_factory_su.servers_per_leaf must be > 0, got %d", t.AIFactorySU.ServersPerLeaf)
	}
	if t.MTU <= 0 {
		return fmt.Errorf("config: topology.mtu must be > 0, got %d", t.MTU)
	}
	if t.TTL <= 0 {
		return fmt.Errorf("config: topology.ttl must be > 0, got %d", t.TTL)
	}
	if t.Links.FailurePercent < 0 || t.Links.FailurePercent > 100 {
		return fmt.Errorf("config: topology.links.failure_percent must be in [0,100], got %g", t.Links.FailurePercent)
	}
	if t.Links.Bandwidth.ServerToLeaf <= 0 {
		return fmt.Errorf("config: topology.links.bandwidth_bps.server_to_leaf must be > 0, got %g", t.Links.Bandwidth.ServerToLeaf)
	}
	if t.Links.Bandwidth.LeafToSpine <= 0 {
		return fmt.Errorf("config: topology.links.bandwidth_bps.leaf_to_spine must be > 0, got %g", t.Links.Bandwidth.LeafToSpine)
	}

	m := c.Scenario.Params.Mice
	if m.Enabled {
		if m.TracePath == "" {
			switch m.ArrivalProcess {
			case "poisson", "gamma", "weibull", "":
			default:
				return fmt.Errorf("config: scenario.params.mice.arrival_process: unknown value %q (want poisson, gamma, or weibull)", m.ArrivalProcess)
			}
			if m.InterarrivalS <= 0 {
				return fmt.Errorf("config: scenario.params.mice.interarrival_s must be > 0, got %g", m.InterarrivalS)
			}
			if m.SizeMeanBytes <= 0 {
				return fmt.Errorf("config: scenario.params.mice.size_mean_bytes must be > 0, got %g", m.SizeMeanBytes)
			}
		}
		if m.EndTimeS < m.StartDelayS {
			return fmt.Errorf("config: scenario.params.mice.end_time_s (%g) must be >= start_delay_s (%g)", m.EndTimeS, m.StartDelayS)
		}
	}
	return nil
}
