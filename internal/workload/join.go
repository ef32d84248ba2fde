package workload

import (
	"fmt"
	"sort"
)

// Join is the barrier/rendezvous that fires once every flow in a
// declared pending set has signaled completion (§3 Barrier (Join)).
// Storage is a small set of flow IDs; firing is idempotence-guarded by
// a boolean — duplicate signals must never occur, but failing closed
// on a bug is cheap (§9 Barrier storage).
type Join struct {
	pending map[string]struct{}
	onDone  func(now float64)
	fired   bool
}

// NewJoin returns a Join pending on exactly the given flow IDs.
func NewJoin(flowIDs []string, onDone func(now float64)) *Join {
	pending := make(map[string]struct{}, len(flowIDs))
	for _, id := range flowIDs {
		pending[id] = struct{}{}
	}
	j := &Join{pending: pending, onDone: onDone}
	if len(pending) == 0 {
		// An empty bucket is vacuously satisfied; fire immediately is
		// not possible here since we have no "now" — callers with an
		// empty bucket must signal completion themselves at time of
		// construction. Left unfired to avoid guessing a timestamp.
	}
	return j
}

// OnFlowComplete removes flowID from the pending set. When the set
// empties, onDone fires exactly once (§8 Barrier uniqueness). Signals
// for a flowID not in the pending set, or after the join has already
// fired, are invariant violations and panic rather than silently
// no-op — a double-fire here means a flow completed twice, which the
// byte-accounting invariant is supposed to prevent upstream.
func (j *Join) OnFlowComplete(flowID string, now float64) {
	if j.fired {
		panic(fmt.Sprintf("workload: join already fired, but flow %s signaled completion again", flowID))
	}
	if _, ok := j.pending[flowID]; !ok {
		panic(fmt.Sprintf("workload: flow %s signaled completion but was not pending on this join", flowID))
	}
	delete(j.pending, flowID)
	if len(j.pending) == 0 {
		j.fired = true
		j.onDone(now)
	}
}

// Pending returns the flow IDs still awaited by this join, for the
// stalled-run report (§7). Sorted so the report is independent of map
// iteration order (§5): identical config and seed must produce an
// identical report.
func (j *Join) Pending() []string {
	ids := make([]string, 0, len(j.pending))
	for id := range j.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
