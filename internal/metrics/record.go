// Package metrics collects the structured record a run produces:
// topology summary, per-step timings, per-flow completion times
// partitioned between job and mice traffic, queue depths, and the
// dropped-packet count (§6, §7 of the external interface).
package metrics

// FlowClass distinguishes scheduled job traffic from the independent
// background mice-flow source, since their FCT distributions are
// tracked separately (§6).
type FlowClass string

const (
	ClassJob  FlowClass = "job"
	ClassMice FlowClass = "mice"
)

// FlowRecord is one completed flow. Flows still pending when the run
// ends appear only in the StallReport.
type FlowRecord struct {
	FlowID    string    `json:"flow_id"`
	Class     FlowClass `json:"class"`
	SrcNodeID string    `json:"src_node_id"`
	DstNodeID string    `json:"dst_node_id"`
	SizeBytes int       `json:"size_bytes"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
}

// FCT returns the flow's completion time.
func (f FlowRecord) FCT() float64 { return f.EndTime - f.StartTime }

// StepRecord stamps one job step's timing.
type StepRecord struct {
	JobID     string  `json:"job_id"`
	Index     int     `json:"index"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns the step's wall time on the simulated clock.
func (s StepRecord) Duration() float64 { return s.EndTime - s.StartTime }

// PortDepth is one port's peak queue occupancy over the run.
type PortDepth struct {
	NodeID    string `json:"node_id"`
	PortIndex int    `json:"port_index"`
	PeakDepth int    `json:"peak_depth"`
}

// TopologySummary describes the built fabric's shape and how many of
// its links were taken down by failure injection.
type TopologySummary struct {
	Leaves         int `json:"leaves"`
	Spines         int `json:"spines"`
	ServersPerLeaf int `json:"servers_per_leaf"`
	TotalHosts     int `json:"total_hosts"`
	TotalSwitches  int `json:"total_switches"`
	TotalLinks     int `json:"total_links"`
	FailedLinks    int `json:"failed_links"`
}

// StallReport names the flows still pending when the scheduler's
// queue emptied with work outstanding (§7 "stalled run"). Barriers
// and phases are not listed.
type StallReport struct {
	UnfinishedFlows []string `json:"unfinished_flows"`
}

// Record is the complete structured output of one run (§6). Identical
// configuration must produce a bit-identical Record.
type Record struct {
	Seed           int64           `json:"seed"`
	Topology       TopologySummary `json:"topology"`
	Steps          []StepRecord    `json:"steps"`
	Flows          []FlowRecord    `json:"flows"`
	PortDepths     []PortDepth     `json:"port_depths"`
	DroppedPackets int             `json:"dropped_packets"`
	Stalled        bool            `json:"stalled"`
	Stall          *StallReport    `json:"stall,omitempty"`
}
