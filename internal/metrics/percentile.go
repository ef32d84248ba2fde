package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile returns the p-th percentile (0-100) of samples using
// linear interpolation between closest ranks, matching the teacher's
// hand-rolled CalculatePercentile but backed by gonum's stat.Quantile
// instead of a bespoke implementation. The result sits at 1-based rank
// 1 + p/100*(n-1) of the sorted samples (p50 of 1..5 is 3). gonum's
// LinInterp reaches the k-th sorted sample at fraction k/n, so that
// rank is divided by n before the call.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	n := float64(len(sorted))
	frac := (1 + p/100.0*(n-1)) / n
	return stat.Quantile(frac, stat.LinInterp, sorted, nil)
}

// FCTs extracts the FCT sample array for flows of the given class.
func FCTs(flows []FlowRecord, class FlowClass) []float64 {
	out := make([]float64, 0, len(flows))
	for _, f := range flows {
		if f.Class == class {
			out = append(out, f.FCT())
		}
	}
	return out
}
