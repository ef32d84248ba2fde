package fabric

import (
	"testing"

	"github.com/netsim/fabric-sim/internal/des"
)

func TestPort_EnqueueDrainsInFIFOOrder(t *testing.T) {
	sched := des.NewScheduler()
	dst := &recordingDeliverable{}
	link := NewLink("l0", sched, &recordingDeliverable{}, dst, 1e9, 0)
	port := NewPort(0, sched, link, DirAtoB)

	for seq := 0; seq < 3; seq++ {
		port.Enqueue(&Packet{L3: L3Header{Size: 1250, Seq: seq}})
	}
	sched.Run()

	if len(dst.delivered) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(dst.delivered))
	}
	for i := 1; i < len(dst.delivered); i++ {
		if dst.delivered[i] <= dst.delivered[i-1] {
			t.Errorf("deliveries not strictly increasing: %v", dst.delivered)
		}
	}
	if got := dst.deliveredSeq; got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("deliveries out of FIFO order: %v", got)
	}
}

func TestPort_PeakDepthTracksMaximumOccupancy(t *testing.T) {
	sched := des.NewScheduler()
	link := NewLink("l0", sched, &recordingDeliverable{}, &recordingDeliverable{}, 1e9, 0)
	port := NewPort(0, sched, link, DirAtoB)

	port.Enqueue(&Packet{L3: L3Header{Size: 1250}})
	port.Enqueue(&Packet{L3: L3Header{Size: 1250}})
	port.Enqueue(&Packet{L3: L3Header{Size: 1250}})

	if port.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3 before draining", port.Depth())
	}
	if port.PeakDepth() != 3 {
		t.Fatalf("PeakDepth() = %d, want 3", port.PeakDepth())
	}

	sched.Run()

	if port.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0 after drain", port.Depth())
	}
	if port.PeakDepth() != 3 {
		t.Errorf("PeakDepth() = %d, want 3 (peak must survive draining)", port.PeakDepth())
	}
}

func TestPort_DrainReschedulesWithoutPoppingWhenLinkBusy(t *testing.T) {
	sched := des.NewScheduler()
	dst := &recordingDeliverable{}
	// Low bandwidth so the first packet's serialization keeps the link
	// busy well past the second packet's enqueue time.
	link := NewLink("l0", sched, &recordingDeliverable{}, dst, 1e6, 0) // 1 Mbps
	port := NewPort(0, sched, link, DirAtoB)

	port.Enqueue(&Packet{L3: L3Header{Size: 1250}}) // 10ms serialization
	// The second packet arrives at 1ms, while the link is still busy;
	// the port is inspected at 5ms, before the link frees up at 10ms.
	sched.Schedule(1e-3, func(float64) { port.Enqueue(&Packet{L3: L3Header{Size: 1250}}) })
	var dequeuedWhileBusy, depthWhileBusy int
	sched.Schedule(5e-3, func(float64) {
		dequeuedWhileBusy = port.totalDequeued
		depthWhileBusy = port.Depth()
	})
	sched.Run()

	// The drain at 1ms must have rescheduled itself for 10ms without
	// popping: only the first packet had been dequeued, and the second
	// was still at the head of the queue.
	if dequeuedWhileBusy != 1 {
		t.Fatalf("totalDequeued while the link was busy = %d, want 1", dequeuedWhileBusy)
	}
	if depthWhileBusy != 1 {
		t.Fatalf("Depth() while the link was busy = %d, want 1 (second packet still queued)", depthWhileBusy)
	}

	if port.totalDequeued != 2 {
		t.Errorf("totalDequeued = %d, want 2 after second drain", port.totalDequeued)
	}
	if len(dst.delivered) != 2 {
		t.Fatalf("expected 2 deliveries total, got %d", len(dst.delivered))
	}
	want := 20e-3 // two 10ms serializations back to back
	if got := dst.delivered[1]; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("second delivery time = %g, want %g", got, want)
	}
}
