package workload

import (
	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/injector"
)

// Runner drives one Job's FSM entirely through scheduled events; it
// never spins or sleeps (§4.4). States: Idle → RunningStep(i) →
// RunningPhase(i,j) → {Compute|Comm} → PhaseDone → … → JobDone.
type Runner struct {
	sched    *des.Scheduler
	injector *injector.Injector
	job      *Job

	onJobComplete func(job *Job, now float64)
	onStepStarted func(job *Job, stepIdx int, now float64)
}

// NewRunner arms a Runner for job, driven by sched and injecting flows
// through inj. onJobComplete fires once, when the job's final step's
// final phase's final bucket has joined.
func NewRunner(sched *des.Scheduler, inj *injector.Injector, job *Job, onJobComplete func(job *Job, now float64)) *Runner {
	return &Runner{sched: sched, injector: inj, job: job, onJobComplete: onJobComplete}
}

// OnStepStarted registers an optional hook fired at the start of each
// step, for metrics stamping beyond the Job/Step records themselves.
func (r *Runner) OnStepStarted(f func(job *Job, stepIdx int, now float64)) {
	r.onStepStarted = f
}

// Start schedules the job's first event at time 0 — per §4.4, a job
// is armed, not run directly; driving the shared scheduler advances it.
func (r *Runner) Start() {
	r.sched.Schedule(0, func(now float64) {
		r.job.StartTime = now
		r.runStep(0, now)
	})
}

func (r *Runner) runStep(stepIdx int, now float64) {
	if stepIdx >= len(r.job.Steps) {
		r.job.EndTime = now
		if r.onJobComplete != nil {
			r.onJobComplete(r.job, now)
		}
		return
	}
	step := &r.job.Steps[stepIdx]
	step.StartTime = now
	if r.onStepStarted != nil {
		r.onStepStarted(r.job, stepIdx, now)
	}
	r.runPhase(stepIdx, 0, now)
}

func (r *Runner) runPhase(stepIdx, phaseIdx int, now float64) {
	step := &r.job.Steps[stepIdx]
	if phaseIdx >= len(step.Phases) {
		step.EndTime = now
		r.runStep(stepIdx+1, now)
		return
	}
	phase := &step.Phases[phaseIdx]
	phase.StartTime = now

	switch phase.Kind {
	case PhaseCompute:
		// Compute{duration_s}: a bare scheduled timer, no network
		// activity. duration_s == 0 completes in the same event-time
		// slot it started (§8 boundary behavior): Schedule(0, ...)
		// still enqueues a fresh event, which runs after everything
		// already queued at this timestamp but before the clock moves.
		r.sched.Schedule(phase.DurationS, func(t float64) {
			phase.EndTime = t
			r.runPhase(stepIdx, phaseIdx+1, t)
		})
	case PhaseComm:
		r.runBucket(stepIdx, phaseIdx, 0, now)
	default:
		panic("workload: unhandled phase kind")
	}
}

func (r *Runner) runBucket(stepIdx, phaseIdx, bucketIdx int, now float64) {
	phase := &r.job.Steps[stepIdx].Phases[phaseIdx]
	if bucketIdx >= len(phase.Buckets) {
		phase.EndTime = now
		r.runPhase(stepIdx, phaseIdx+1, now)
		return
	}
	bucket := &phase.Buckets[bucketIdx]
	bucket.StartTime = now

	advance := func(t float64) {
		bucket.EndTime = t
		r.runBucket(stepIdx, phaseIdx, bucketIdx+1, t)
	}

	if len(bucket.Flows) == 0 {
		advance(now)
		return
	}

	flowIDs := make([]string, len(bucket.Flows))
	for i := range bucket.Flows {
		flowIDs[i] = bucket.Flows[i].FlowID
	}
	join := NewJoin(flowIDs, advance)

	for i := range bucket.Flows {
		f := &bucket.Flows[i]
		delay := f.StartOffsetS
		if delay < 0 {
			delay = 0
		}
		r.sched.Schedule(delay, func(t float64) {
			f.StartTime = t
			flow := f.Flow
			err := r.injector.Inject(flow, t, func(flowID string, tt float64) {
				f.EndTime = tt
				join.OnFlowComplete(flowID, tt)
			})
			if err != nil {
				panic(err)
			}
		})
	}
}
