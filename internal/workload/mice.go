package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/netsim/fabric-sim/internal/des"
	"github.com/netsim/fabric-sim/internal/injector"
)

// MiceConfig parameterizes the background mice-flow source: short,
// frequent, independent point-to-point flows layered over a job's
// scheduled traffic to model incidental small-message noise.
type MiceConfig struct {
	StartDelayS     float64
	EndTimeS        float64
	ArrivalProcess  string // "poisson" | "gamma" | "weibull" | ""
	InterarrivalS   float64
	ArrivalCV       float64
	SizeMeanBytes   float64
	SizeStdDevBytes float64
	ForceCrossRack  bool
	TracePath       string
}

// RackOf maps a host ID to the rack (leaf) it belongs to, used to
// enforce ForceCrossRack.
type RackOf func(hostID string) string

// MiceRecord is stamped for every mice flow the injector starts, for
// the metrics layer's mice-vs-job partitioning (§7).
type MiceRecord struct {
	FlowID    string
	SrcNodeID string
	DstNodeID string
	SizeBytes int
	StartTime float64
	EndTime   float64
}

// MiceInjector drives an independent, self-scheduling stream of
// background flows, entirely through des.Scheduler events, exactly
// like the job Runner (§4.4's mice injector). It never reads a clock
// directly and never blocks.
type MiceInjector struct {
	sched    *des.Scheduler
	injector *injector.Injector
	rng      *rand.Rand
	cfg      MiceConfig
	hostIDs  []string
	rackOf   RackOf

	sampler ArrivalSampler
	onFlow  func(rec MiceRecord)

	flowSeq int
}

// NewMiceInjector builds a mice injector over the given host set. If
// cfg.TracePath is set, flows are read from the CSV trace instead of
// sampled from a distribution — explicit flows > CSV trace >
// distribution sampling (§9).
func NewMiceInjector(sched *des.Scheduler, inj *injector.Injector, cfg MiceConfig, hostIDs []string, rackOf RackOf, rng *rand.Rand) (*MiceInjector, error) {
	m := &MiceInjector{
		sched:    sched,
		injector: inj,
		rng:      rng,
		cfg:      cfg,
		hostIDs:  hostIDs,
		rackOf:   rackOf,
	}
	if cfg.TracePath == "" {
		sampler, err := NewArrivalSampler(cfg.ArrivalProcess, 1.0/cfg.InterarrivalS, cfg.ArrivalCV)
		if err != nil {
			return nil, err
		}
		m.sampler = sampler
	}
	if len(hostIDs) < 2 {
		return nil, fmt.Errorf("workload: mice injector needs at least 2 hosts, got %d", len(hostIDs))
	}
	return m, nil
}

// OnFlow registers a hook called once per mice flow, when it
// completes, for the metrics layer. Flows that never complete are not
// reported. Called synchronously from scheduler events.
func (m *MiceInjector) OnFlow(f func(rec MiceRecord)) {
	m.onFlow = f
}

// Start arms the injector. Call once, before sched.Run.
func (m *MiceInjector) Start() {
	if m.cfg.TracePath != "" {
		m.startFromTrace()
		return
	}
	m.sched.Schedule(m.cfg.StartDelayS, m.scheduleNext)
}

func (m *MiceInjector) scheduleNext(now float64) {
	if now >= m.cfg.EndTimeS {
		return
	}
	src, dst := m.pickPair()
	size := m.sampleSize()
	m.emit(src, dst, size, now)

	iat := m.sampler.SampleIAT(m.rng)
	next := now + iat
	if next >= m.cfg.EndTimeS {
		return
	}
	m.sched.Schedule(iat, m.scheduleNext)
}

// pickPair chooses a uniformly random ordered (src, dst) pair, retrying
// until it finds a cross-rack pair when ForceCrossRack is set. Gives up
// after a bounded number of attempts rather than spinning forever on a
// single-rack topology.
func (m *MiceInjector) pickPair() (string, string) {
	const maxAttempts = 64
	for attempt := 0; attempt < maxAttempts; attempt++ {
		i := m.rng.Intn(len(m.hostIDs))
		j := m.rng.Intn(len(m.hostIDs))
		if i == j {
			continue
		}
		src, dst := m.hostIDs[i], m.hostIDs[j]
		if !m.cfg.ForceCrossRack || m.rackOf == nil {
			return src, dst
		}
		if m.rackOf(src) != m.rackOf(dst) {
			return src, dst
		}
	}
	logrus.Warnf("workload: mice injector could not find a cross-rack pair after %d attempts; falling back to same-rack", maxAttempts)
	return m.hostIDs[0], m.hostIDs[1]
}

func (m *MiceInjector) sampleSize() int {
	if m.cfg.SizeStdDevBytes <= 0 {
		return int(m.cfg.SizeMeanBytes)
	}
	size := m.rng.NormFloat64()*m.cfg.SizeStdDevBytes + m.cfg.SizeMeanBytes
	if size < 1 {
		size = 1
	}
	return int(math.Round(size))
}

func (m *MiceInjector) emit(src, dst string, size int, now float64) {
	m.flowSeq++
	flowID := "mice-" + uuid.NewString()
	rec := &MiceRecord{FlowID: flowID, SrcNodeID: src, DstNodeID: dst, SizeBytes: size, StartTime: now}

	err := m.injector.Inject(injector.Flow{FlowID: flowID, SrcNodeID: src, DstNodeID: dst, SizeBytes: size}, now,
		func(id string, end float64) {
			rec.EndTime = end
			if m.onFlow != nil {
				m.onFlow(*rec)
			}
		})
	if err != nil {
		logrus.Warnf("workload: mice flow %s failed to inject: %v", flowID, err)
	}
}

// startFromTrace reads (offset_s, src, dst, size_bytes) rows and
// schedules one flow per row at its recorded offset, ignoring rows
// past EndTimeS. Grounded on the teacher's CSV trace ingestion, which
// opens once up front and schedules the whole trace rather than
// reading incrementally — the trace is expected to fit in memory.
func (m *MiceInjector) startFromTrace() {
	f, err := os.Open(m.cfg.TracePath)
	if err != nil {
		logrus.Fatalf("workload: failed to open mice trace %q: %v", m.cfg.TracePath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logrus.Warnf("workload: failed to close mice trace %q: %v", m.cfg.TracePath, cerr)
		}
	}()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		logrus.Fatalf("workload: failed to read mice trace header: %v", err)
	}

	row := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logrus.Fatalf("workload: error reading mice trace at row %d: %v", row, err)
		}
		if len(rec) < 4 {
			logrus.Fatalf("workload: mice trace row %d has %d columns, want at least 4 (offset_s,src,dst,size_bytes)", row, len(rec))
		}
		offset, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			logrus.Fatalf("workload: invalid offset_s at mice trace row %d: %v", row, err)
		}
		size, err := strconv.Atoi(rec[3])
		if err != nil {
			logrus.Fatalf("workload: invalid size_bytes at mice trace row %d: %v", row, err)
		}
		src, dst := rec[1], rec[2]
		if m.cfg.EndTimeS > 0 && offset >= m.cfg.EndTimeS {
			row++
			continue
		}
		delay := m.cfg.StartDelayS + offset
		m.sched.Schedule(delay, func(now float64) {
			m.emit(src, dst, size, now)
		})
		row++
	}
}
