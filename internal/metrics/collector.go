package metrics

// Collector accumulates per-step and per-flow records. The caller
// feeds it: mice flows arrive through the mice injector's completion
// hook during the run, while steps and job flows are recorded after
// the run by walking the finished job tree.
type Collector struct {
	seed     int64
	topology TopologySummary
	steps    []StepRecord
	flows    []FlowRecord
}

// NewCollector starts an empty collector for the given seed and
// (already-built) topology summary.
func NewCollector(seed int64, topo TopologySummary) *Collector {
	return &Collector{seed: seed, topology: topo}
}

// RecordStep appends one step's timing.
func (c *Collector) RecordStep(rec StepRecord) {
	c.steps = append(c.steps, rec)
}

// RecordFlow appends one flow's completion record.
func (c *Collector) RecordFlow(rec FlowRecord) {
	c.flows = append(c.flows, rec)
}

// Flows returns every flow recorded so far, for percentile computation
// mid-run or in tests.
func (c *Collector) Flows() []FlowRecord {
	return c.flows
}

// Finalize produces the complete Record, folding in the port-depth
// snapshot, dropped-packet count, and stall report computed after the
// scheduler's queue has emptied.
func (c *Collector) Finalize(portDepths []PortDepth, dropped int, unfinished []string) Record {
	rec := Record{
		Seed:           c.seed,
		Topology:       c.topology,
		Steps:          c.steps,
		Flows:          c.flows,
		PortDepths:     portDepths,
		DroppedPackets: dropped,
	}
	if len(unfinished) > 0 {
		rec.Stalled = true
		rec.Stall = &StallReport{UnfinishedFlows: unfinished}
	}
	return rec
}
