package des

import "container/heap"

// eventHeap implements a priority queue with deterministic ordering.
// Ordering: timestamp → sequence number (insertion order).
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

// Less orders by timestamp first, then by sequence number so that
// events scheduled at an identical time execute in insertion order.
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*eventHeap)(nil)
