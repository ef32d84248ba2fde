// Package engine ties the simulator's pieces together behind the
// single entry point described by §6: run(config) -> metrics_record.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/netsim/fabric-sim/internal/config"
	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/injector"
	"github.com/netsim/fabric-sim/internal/metrics"
	"github.com/netsim/fabric-sim/internal/rng"
	"github.com/netsim/fabric-sim/internal/scenario"
	"github.com/netsim/fabric-sim/internal/topology"
	"github.com/netsim/fabric-sim/internal/workload"
)

const (
	subsystemTopology = "link-failure"
	subsystemMice     = "mice"
)

// Run executes one complete simulation for cfg and returns the
// resulting metrics record. It is the sole entry point the cmd
// package (or a future embedder) calls; exit-code / process-level
// concerns belong to the caller (§6: "exit code 0 on success, non-zero
// on configuration or invariant failure").
func Run(cfg *config.Config) (*metrics.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := rng.Seed(cfg.Scenario.Params.Seed)
	master := rng.NewPartitioned(seed)

	sched := des.NewScheduler()
	fab, err := topology.Build(sched, cfg.Topology, master.For(subsystemTopology))
	if err != nil {
		return nil, fmt.Errorf("engine: topology build failed: %w", err)
	}

	inj := injector.New(fab.Hosts)
	summary := metrics.TopologySummaryOf(fab, cfg.Topology.AIFactorySU.Leaves, cfg.Topology.AIFactorySU.Spines, cfg.Topology.AIFactorySU.ServersPerLeaf)
	collector := metrics.NewCollector(int64(seed), summary)

	job, err := scenario.BuildAllReduceJob(cfg.Scenario.Name, cfg.Scenario.Params, fab.HostOrder)
	if err != nil {
		return nil, fmt.Errorf("engine: scenario build failed: %w", err)
	}

	runner := workload.NewRunner(sched, inj, job, func(j *workload.Job, now float64) {
		logrus.Debugf("engine: job %s completed at %g", j.ID, now)
	})
	runner.OnStepStarted(func(j *workload.Job, stepIdx int, now float64) {
		logrus.Debugf("engine: job %s entering step %d at %g", j.ID, stepIdx, now)
	})
	runner.Start()

	mc := cfg.Scenario.Params.Mice
	if mc.Enabled {
		miceCfg := workload.MiceConfig{
			StartDelayS:     mc.StartDelayS,
			EndTimeS:        mc.EndTimeS,
			ArrivalProcess:  mc.ArrivalProcess,
			InterarrivalS:   mc.InterarrivalS,
			ArrivalCV:       mc.ArrivalCV,
			SizeMeanBytes:   mc.SizeMeanBytes,
			SizeStdDevBytes: mc.SizeStdDevBytes,
			ForceCrossRack:  mc.ForceCrossRack,
			TracePath:       mc.TracePath,
		}
		mi, err := workload.NewMiceInjector(sched, inj, miceCfg, fab.HostOrder, rackOf(fab), master.For(subsystemMice))
		if err != nil {
			return nil, fmt.Errorf("engine: mice injector build failed: %w", err)
		}
		mi.OnFlow(func(rec workload.MiceRecord) {
			collector.RecordFlow(metrics.FlowRecord{
				FlowID:    rec.FlowID,
				Class:     metrics.ClassMice,
				SrcNodeID: rec.SrcNodeID,
				DstNodeID: rec.DstNodeID,
				SizeBytes: rec.SizeBytes,
				StartTime: rec.StartTime,
				EndTime:   rec.EndTime,
			})
		})
		mi.Start()
	}

	sched.Run()
	recordJobFlows(collector, job)
	recordSteps(collector, job)

	unfinished := inj.Pending()
	if len(unfinished) > 0 {
		logrus.Warnf("engine: run stalled with %d flow(s) still pending", len(unfinished))
	}

	portDepths := metrics.PortDepths(fab)
	dropped := metrics.DroppedPackets(fab)
	rec := collector.Finalize(portDepths, dropped, unfinished)
	return &rec, nil
}

// rackOf maps a host ID to its leaf switch ID, so the mice injector
// can enforce force_cross_rack without knowing anything about leaf-
// spine addressing itself.
func rackOf(fab *topology.Fabric) workload.RackOf {
	leafOf := make(map[string]string, len(fab.Hosts))
	for leafID, sw := range fab.Switches {
		for _, p := range sw.Ports {
			if p.Link == nil {
				continue
			}
			for _, hostID := range fab.HostOrder {
				h := fab.Hosts[hostID]
				if p.Link.A == h || p.Link.B == h {
					leafOf[hostID] = leafID
				}
			}
		}
	}
	return func(hostID string) string { return leafOf[hostID] }
}

// recordSteps walks the completed job tree and records each step's
// start/end timing (§6 "per-step arrays of start/end/duration").
func recordSteps(collector *metrics.Collector, job *workload.Job) {
	for i, step := range job.Steps {
		collector.RecordStep(metrics.StepRecord{
			JobID:     job.ID,
			Index:     i,
			StartTime: step.StartTime,
			EndTime:   step.EndTime,
		})
	}
}

// recordJobFlows walks the completed job tree and records every flow
// the runner stamped with Start/EndTime. Unfinished flows (a stalled
// bucket) are left at their zero EndTime and are instead surfaced
// through the injector's pending-flow list in the stall report.
func recordJobFlows(collector *metrics.Collector, job *workload.Job) {
	for _, step := range job.Steps {
		for _, phase := range step.Phases {
			for _, bucket := range phase.Buckets {
				for _, f := range bucket.Flows {
					if f.EndTime == 0 {
						continue
					}
					collector.RecordFlow(metrics.FlowRecord{
						FlowID:    f.FlowID,
						Class:     metrics.ClassJob,
						SrcNodeID: f.SrcNodeID,
						DstNodeID: f.DstNodeID,
						SizeBytes: f.SizeBytes,
						StartTime: f.StartTime,
						EndTime:   f.EndTime,
					})
				}
			}
		}
	}
}
