package engine

import (
	"testing"

	"github.com/netsim/fabric-sim/internal/config"
)

func smallConfig() *config.Config {
	return &config.Config{
		Topology: config.TopologyConfig{
			AIFactorySU: config.AIFactorySU{Leaves: 2, Spines: 2, ServersPerLeaf: 2, LeafToSpineParallelLinks: 1},
			Routing:     config.RoutingConfig{Mode: "ecmp"},
			Links: config.LinksConfig{
				FailurePercent: 0,
				Bandwidth:      config.BandwidthConfig{ServerToLeaf: 1e9, LeafToSpine: 4e9},
				PropDelayS:     1e-6,
			},
			MTU: 1500,
			TTL: 64,
		},
		Scenario: config.ScenarioConfig{
			Name: "allreduce-test",
			Params: config.ScenarioParams{
				Steps:                     1,
				Seed:                      1,
				NumBuckets:                2,
				BucketBytesPerParticipant: 4096,
				GapUs:                     0,
				TFwdBwdMs:                 1,
				OptimizerMs:               0.5,
			},
		},
	}
}

func TestRun_CompletesAndProducesMetrics(t *testing.T) {
	rec, err := Run(smallConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Stalled {
		t.Fatalf("run unexpectedly stalled: %+v", rec.Stall)
	}
	if len(rec.Steps) != 1 {
		t.Errorf("len(Steps) = %d, want 1", len(rec.Steps))
	}
	jobFlows := 0
	for _, f := range rec.Flows {
		if f.Class == "job" {
			jobFlows++
		}
	}
	// 4 hosts, 2 buckets -> 8 job flows.
	if jobFlows != 8 {
		t.Errorf("job flow count = %d, want 8", jobFlows)
	}
	if rec.DroppedPackets != 0 {
		t.Errorf("DroppedPackets = %d, want 0 on a healthy topology", rec.DroppedPackets)
	}
}

func TestRun_StepDurationIsComputePlusComm(t *testing.T) {
	cfg := smallConfig()
	rec, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	step := rec.Steps[0]
	computeS := (cfg.Scenario.Params.TFwdBwdMs + cfg.Scenario.Params.OptimizerMs) / 1000.0
	if step.Duration() < computeS {
		t.Errorf("step duration %g is shorter than its compute phase alone (%g)", step.Duration(), computeS)
	}
}

func TestRun_InvalidConfigReturnsError(t *testing.T) {
	cfg := smallConfig()
	cfg.Topology.Routing.Mode = "bogus"
	if _, err := Run(cfg); err == nil {
		t.Fatal("expected validation error for unknown routing mode")
	}
}

func TestRun_MiceFlowsTrackedSeparately(t *testing.T) {
	cfg := smallConfig()
	cfg.Scenario.Params.Mice = config.MiceConfig{
		Enabled:       true,
		StartDelayS:   0,
		EndTimeS:      0.001,
		InterarrivalS: 0.0002,
		SizeMeanBytes: 256,
	}
	rec, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	miceFlows := 0
	for _, f := range rec.Flows {
		if f.Class == "mice" {
			miceFlows++
		}
	}
	if miceFlows == 0 {
		t.Error("expected at least one mice flow with mice injection enabled")
	}
}
