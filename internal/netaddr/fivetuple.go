package netaddr

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// FiveTuple extends the classic five-tuple with a mutable flowlet
// field: flowlet routing perturbs it to reroute a burst without
// touching any other field of the flow's identity.
type FiveTuple struct {
	SrcIP        IP
	DstIP        IP
	SrcPort      uint16
	DstPort      uint16
	Protocol     uint8
	FlowletField uint32
}

// Hash returns a deterministic 64-bit hash of the tuple. It hashes the
// packed big-endian byte representation of the numeric fields — never
// a textual rendering — so the result is stable across processes and
// independent of host byte order, satisfying the determinism
// requirement in §3/§4.2.
func (t FiveTuple) Hash() uint64 {
	var buf [17]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(t.SrcIP))
	binary.BigEndian.PutUint32(buf[4:8], uint32(t.DstIP))
	binary.BigEndian.PutUint16(buf[8:10], t.SrcPort)
	binary.BigEndian.PutUint16(buf[10:12], t.DstPort)
	buf[12] = t.Protocol
	binary.BigEndian.PutUint32(buf[13:17], t.FlowletField)
	return xxhash.Sum64(buf[:])
}

// SelectIndex deterministically picks one candidate from a stably
// ordered slice using the tuple's hash: chosen = candidates[hash % n].
func (t FiveTuple) SelectIndex(numCandidates int) int {
	if numCandidates <= 0 {
		panic("netaddr: SelectIndex called with no candidates")
	}
	return int(t.Hash() % uint64(numCandidates))
}
