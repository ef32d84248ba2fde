// Package workload implements the job/control-plane state machine:
// jobs composed of compute and communication phases, with per-bucket
// barriers joining a set of point-to-point flows whose completion is
// detected by byte accounting at the destination host (§4.4).
package workload

import "github.com/netsim/fabric-sim/internal/injector"

// PhaseKind is the tagged variant a Phase carries — a closed sum
// preferred over an open interface hierarchy per the design notes
// (§9), since there are exactly two kinds and exhaustive dispatch on
// Kind eliminates a class of missed-case bugs.
type PhaseKind int

const (
	// PhaseCompute is a bare scheduled timer: no network activity.
	PhaseCompute PhaseKind = iota
	// PhaseComm runs its Buckets as sequential barriers.
	PhaseComm
)

// Flow is one point-to-point transfer within a Bucket. FlowID must be
// globally unique across the entire run.
type Flow struct {
	injector.Flow
	StartOffsetS float64

	// Stamped by the runner/injector as the flow progresses.
	StartTime float64
	EndTime   float64
}

// Bucket is a barrier: every Flow in it runs concurrently, and the
// bucket is done only once every flow has delivered its full byte
// count. Buckets within a Comm phase execute strictly in order.
type Bucket struct {
	Flows []Flow

	StartTime float64
	EndTime   float64
}

// Phase is Compute{DurationS} or Comm{Buckets}, selected by Kind.
type Phase struct {
	Kind PhaseKind

	// DurationS is meaningful when Kind == PhaseCompute.
	DurationS float64
	// Buckets is meaningful when Kind == PhaseComm.
	Buckets []Bucket

	StartTime float64
	EndTime   float64
}

// ComputePhase constructs a Compute phase of the given duration.
func ComputePhase(durationS float64) Phase {
	return Phase{Kind: PhaseCompute, DurationS: durationS}
}

// CommPhase constructs a Comm phase over the given buckets.
func CommPhase(buckets []Bucket) Phase {
	return Phase{Kind: PhaseComm, Buckets: buckets}
}

// JobStep is an ordered list of phases. A job's steps run strictly in
// sequence; a step's phases likewise run strictly in sequence.
type JobStep struct {
	Phases []Phase

	StartTime float64
	EndTime   float64
}

// Job is the top-level unit of work: an ordered list of steps.
type Job struct {
	ID    string
	Steps []JobStep

	StartTime float64
	EndTime   float64
}
