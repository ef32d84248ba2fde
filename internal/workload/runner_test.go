package workload

import (
	"testing"

	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/fabric"
	"github.com/netsim/fabric-sim/internal/injector"
	"github.com/netsim/fabric-sim/internal/netaddr"
)

func newDirectPair(t *testing.T, sched *des.Scheduler, mtu int) (*fabric.Host, *fabric.Host) {
	t.Helper()
	a := fabric.NewHost("a", netaddr.MustParseIP("10.0.0.1"), mtu, 64)
	b := fabric.NewHost("b", netaddr.MustParseIP("10.0.0.2"), mtu, 64)

	link := fabric.NewLink("ab", sched, a, b, 1e9, 1e-6)
	aPort := fabric.NewPort(0, sched, link, fabric.DirAtoB)
	bPort := fabric.NewPort(0, sched, link, fabric.DirBtoA)
	a.AttachPort(aPort)
	b.AttachPort(bPort)
	return a, b
}

func TestRunner_ComputePhaseAdvancesByDuration(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := newInjector(a, b)

	job := &Job{
		ID: "j1",
		Steps: []JobStep{
			{Phases: []Phase{ComputePhase(2.5)}},
		},
	}

	var doneAt float64
	done := false
	r := NewRunner(sched, inj, job, func(j *Job, now float64) {
		done = true
		doneAt = now
	})
	r.Start()
	sched.Run()

	if !done {
		t.Fatal("job never completed")
	}
	if doneAt != 2.5 {
		t.Errorf("job completed at %g, want 2.5", doneAt)
	}
	if job.Steps[0].Phases[0].EndTime != 2.5 {
		t.Errorf("phase EndTime = %g, want 2.5", job.Steps[0].Phases[0].EndTime)
	}
}

func TestRunner_CommPhaseBucketsRunInOrder(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := newInjector(a, b)

	job := &Job{
		ID: "j1",
		Steps: []JobStep{
			{Phases: []Phase{CommPhase([]Bucket{
				{Flows: []Flow{{Flow: injector.Flow{FlowID: "f1", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 4096}}}},
				{Flows: []Flow{{Flow: injector.Flow{FlowID: "f2", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 4096}}}},
			})}},
		},
	}

	done := false
	r := NewRunner(sched, inj, job, func(j *Job, now float64) { done = true })
	r.Start()
	sched.Run()

	if !done {
		t.Fatal("job never completed")
	}
	buckets := job.Steps[0].Phases[0].Buckets
	if buckets[0].EndTime <= 0 {
		t.Fatal("first bucket never completed")
	}
	if buckets[1].StartTime < buckets[0].EndTime {
		t.Errorf("bucket 1 started at %g before bucket 0 ended at %g", buckets[1].StartTime, buckets[0].EndTime)
	}
	if buckets[1].EndTime < buckets[1].StartTime {
		t.Error("bucket 1 ended before it started")
	}
}

func TestRunner_MultiStepSequencing(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := newInjector(a, b)

	job := &Job{
		ID: "j1",
		Steps: []JobStep{
			{Phases: []Phase{ComputePhase(1.0)}},
			{Phases: []Phase{CommPhase([]Bucket{
				{Flows: []Flow{{Flow: injector.Flow{FlowID: "f1", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 1024}}}},
			})}},
		},
	}

	var jobEnd float64
	r := NewRunner(sched, inj, job, func(j *Job, now float64) { jobEnd = now })
	r.Start()
	sched.Run()

	if job.Steps[0].EndTime != 1.0 {
		t.Errorf("step 0 EndTime = %g, want 1.0", job.Steps[0].EndTime)
	}
	if job.Steps[1].StartTime != 1.0 {
		t.Errorf("step 1 StartTime = %g, want 1.0", job.Steps[1].StartTime)
	}
	if jobEnd < 1.0 {
		t.Errorf("job ended at %g, before step 0 even finished", jobEnd)
	}
}

func TestRunner_EmptyBucketAdvancesWithoutStalling(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := newInjector(a, b)

	job := &Job{
		ID: "j1",
		Steps: []JobStep{
			{Phases: []Phase{CommPhase([]Bucket{
				{Flows: nil},
				{Flows: []Flow{{Flow: injector.Flow{FlowID: "f1", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 512}}}},
			})}},
		},
	}

	done := false
	r := NewRunner(sched, inj, job, func(j *Job, now float64) { done = true })
	r.Start()
	sched.Run()

	if !done {
		t.Fatal("job with an empty leading bucket never completed")
	}
}

func newInjector(hosts ...*fabric.Host) *injector.Injector {
	m := make(map[string]*fabric.Host, len(hosts))
	for _, h := range hosts {
		m[h.ID] = h
	}
	return injector.New(m)
}
