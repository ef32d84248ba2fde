package injector

import (
	"testing"

	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/fabric"
	"github.com/netsim/fabric-sim/internal/netaddr"
)

// newDirectPair wires two hosts back-to-back through a single switch-free
// link for injector-level tests that don't need full topology routing.
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

func TestInjector_CompletesOnFullByteCount(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := New(map[string]*fabric.Host{"a": a, "b": b})

	var completedAt float64
	var completed bool
	err := inj.Inject(Flow{FlowID: "f1", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 4096}, 0,
		func(id string, now float64) {
			completed = true
			completedAt = now
		})
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	sched.Run()

	if !completed {
		t.Fatal("flow never completed")
	}
	if completedAt <= 0 {
		t.Errorf("completedAt = %g, want > 0", completedAt)
	}
}

func TestInjector_ZeroSizeFlowCompletesImmediately(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := New(map[string]*fabric.Host{"a": a, "b": b})

	var completedAt float64
	called := false
	err := inj.Inject(Flow{FlowID: "f0", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 0}, 5.0,
		func(id string, now float64) {
			called = true
			completedAt = now
		})
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if !called {
		t.Fatal("zero-byte flow should complete synchronously within Inject")
	}
	if completedAt != 5.0 {
		t.Errorf("completedAt = %g, want 5.0 (injection time)", completedAt)
	}
}

func TestInjector_UnknownNodeErrors(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := New(map[string]*fabric.Host{"a": a, "b": b})

	err := inj.Inject(Flow{FlowID: "f1", SrcNodeID: "a", DstNodeID: "ghost", SizeBytes: 10}, 0, func(string, float64) {})
	if err == nil {
		t.Fatal("expected error for unknown destination node")
	}
}

func TestInjector_PendingIsSortedRegardlessOfInjectionOrder(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 4096)
	inj := New(map[string]*fabric.Host{"a": a, "b": b})

	for _, id := range []string{"zeta", "alpha", "mu", "beta"} {
		if err := inj.Inject(Flow{FlowID: id, SrcNodeID: "a", DstNodeID: "b", SizeBytes: 4096}, 0, func(string, float64) {}); err != nil {
			t.Fatalf("Inject(%s): %v", id, err)
		}
	}

	got := inj.Pending()
	want := []string{"alpha", "beta", "mu", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Pending() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pending()[%d] = %q, want %q (not sorted)", i, got[i], want[i])
		}
	}
}

func TestInjector_CompletesExactlyOnce(t *testing.T) {
	sched := des.NewScheduler()
	a, b := newDirectPair(t, sched, 1024)
	inj := New(map[string]*fabric.Host{"a": a, "b": b})

	calls := 0
	_ = inj.Inject(Flow{FlowID: "f1", SrcNodeID: "a", DstNodeID: "b", SizeBytes: 4096}, 0,
		func(string, float64) { calls++ })
	sched.Run()

	if calls != 1 {
		t.Errorf("on_complete called %d times, want exactly 1", calls)
	}
}
