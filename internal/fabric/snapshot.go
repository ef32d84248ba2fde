package fabric

// PortSnapshot is a lightweight, read-only view of a candidate port's
// state for routing decisions, separating what a policy sees from the
// live mutable Port it was read from. Built fresh per decision; never
// retained across ticks.
type PortSnapshot struct {
	PortIndex int
	Depth     int
	PeakDepth int
	Live      bool
}

// SnapshotCandidates builds one PortSnapshot per candidate index, in
// the same order as candidates.
func SnapshotCandidates(candidates []int, ports []*Port) []PortSnapshot {
	snaps := make([]PortSnapshot, len(candidates))
	for i, idx := range candidates {
		snaps[i] = PortSnapshot{
			PortIndex: idx,
			Depth:     ports[idx].Depth(),
			PeakDepth: ports[idx].PeakDepth(),
			Live:      !ports[idx].Link.Failed,
		}
	}
	return snaps
}

// CandidateScore pairs a candidate port with the score a routing
// policy assigned it, for offline analysis of a decision without
// committing it.
type CandidateScore struct {
	PortIndex int
	Score     float64
}

// ScoreCandidatePorts scores candidates the way ModeAdaptive would
// (lower queue depth is better) without mutating any routing state or
// selecting a port, so a test harness or diagnostic tool can ask "what
// would adaptive routing have picked here, and by how much" alongside
// whatever mode actually ran. Scores are the negative queue depth, so
// higher is better and the top-ranked entry is what selectAdaptive
// would choose before ECMP tie-breaking.
func ScoreCandidatePorts(candidates []int, ports []*Port) []CandidateScore {
	scores := make([]CandidateScore, len(candidates))
	for i, idx := range candidates {
		scores[i] = CandidateScore{PortIndex: idx, Score: -float64(ports[idx].Depth())}
	}
	return scores
}
