package fabric

import (
	"testing"

	"github.com/netsim/fabric-sim/internal/des"
)

type nullDeliverable struct{}

func (nullDeliverable) Deliver(pkt *Packet, now float64) {}

func newTestPorts(t *testing.T, sched *des.Scheduler, n int) []*Port {
	t.Helper()
	ports := make([]*Port, n)
	for i := 0; i < n; i++ {
		link := NewLink("l", sched, nullDeliverable{}, nullDeliverable{}, 1e9, 1e-6)
		ports[i] = NewPort(i, sched, link, DirAtoB)
	}
	return ports
}

func TestSnapshotCandidates_ReflectsDepthAndLiveness(t *testing.T) {
	sched := des.NewScheduler()
	ports := newTestPorts(t, sched, 3)
	ports[1].Link.Failed = true
	ports[2].queue = []*Packet{{}, {}}
	ports[2].peakDepth = 2

	snaps := SnapshotCandidates([]int{0, 1, 2}, ports)

	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if snaps[0].Live != true || snaps[0].Depth != 0 {
		t.Errorf("port 0: got %+v", snaps[0])
	}
	if snaps[1].Live != false {
		t.Errorf("port 1: expected Live=false for a failed link, got %+v", snaps[1])
	}
	if snaps[2].Depth != 2 || snaps[2].PeakDepth != 2 {
		t.Errorf("port 2: expected depth/peak 2, got %+v", snaps[2])
	}
}

func TestScoreCandidatePorts_PrefersShallowerQueue(t *testing.T) {
	sched := des.NewScheduler()
	ports := newTestPorts(t, sched, 2)
	ports[1].queue = []*Packet{{}, {}, {}}

	scores := ScoreCandidatePorts([]int{0, 1}, ports)

	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Score <= scores[1].Score {
		t.Errorf("expected port 0 (empty queue) to outscore port 1 (depth 3), got %+v", scores)
	}
}

func TestScoreCandidatePorts_EmptyCandidatesReturnsEmpty(t *testing.T) {
	sched := des.NewScheduler()
	ports := newTestPorts(t, sched, 1)

	scores := ScoreCandidatePorts(nil, ports)

	if len(scores) != 0 {
		t.Errorf("expected no scores for no candidates, got %+v", scores)
	}
}
