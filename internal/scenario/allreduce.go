// Package scenario turns the opaque scenario.params configuration
// group (§6) into a concrete workload.Job. Only the well-known keys
// are interpreted here; everything else under scenario.params is the
// core's business to ignore.
package scenario

import (
	"fmt"

	"github.com/netsim/fabric-sim/internal/config"
	"github.com/netsim/fabric-sim/internal/injector"
	"github.com/netsim/fabric-sim/internal/workload"
)

// BuildAllReduceJob constructs a single DP-style job whose steps
// alternate a compute phase (forward+backward+optimizer) with a
// communication phase modeling a ring all-reduce over hostOrder:
// each bucket sends bucket_bytes_per_participant from every
// participant to its ring successor, concurrently.
//
// gap_us is applied as a per-flow start offset within a bucket,
// modeling the small per-collective-launch jitter real NCCL kernels
// exhibit; it does not delay the bucket barrier itself.
func BuildAllReduceJob(jobID string, params config.ScenarioParams, hostOrder []string) (*workload.Job, error) {
	if params.Steps <= 0 {
		return nil, fmt.Errorf("scenario: steps must be > 0, got %d", params.Steps)
	}
	if params.NumBuckets <= 0 {
		return nil, fmt.Errorf("scenario: num_buckets must be > 0, got %d", params.NumBuckets)
	}
	if len(hostOrder) < 2 {
		return nil, fmt.Errorf("scenario: all-reduce needs at least 2 participants, got %d", len(hostOrder))
	}

	computeS := (params.TFwdBwdMs + params.OptimizerMs) / 1000.0
	gapS := params.GapUs / 1e6

	job := &workload.Job{ID: jobID}
	for s := 0; s < params.Steps; s++ {
		step := workload.JobStep{
			Phases: []workload.Phase{
				workload.ComputePhase(computeS),
				workload.CommPhase(buildBuckets(jobID, s, params, hostOrder, gapS)),
			},
		}
		job.Steps = append(job.Steps, step)
	}
	return job, nil
}

func buildBuckets(jobID string, stepIdx int, params config.ScenarioParams, hostOrder []string, gapS float64) []workload.Bucket {
	buckets := make([]workload.Bucket, params.NumBuckets)
	n := len(hostOrder)

	for b := 0; b < params.NumBuckets; b++ {
		flows := make([]workload.Flow, n)
		for i, src := range hostOrder {
			dst := hostOrder[(i+1)%n]
			flows[i] = workload.Flow{
				Flow: injector.Flow{
					FlowID:    fmt.Sprintf("%s-s%d-b%d-%s", jobID, stepIdx, b, src),
					SrcNodeID: src,
					DstNodeID: dst,
					SizeBytes: int(params.BucketBytesPerParticipant),
				},
				StartOffsetS: float64(i) * gapS,
			}
		}
		buckets[b] = workload.Bucket{Flows: flows}
	}
	return buckets
}
