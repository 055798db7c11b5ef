package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	VerificationsStarted    uint64
	VerificationsSucceeded  uint64
	VerificationsRejected   map[string]uint64
	VerificationsFailed     map[string]uint64
	AllocationsSaved        uint64
	AllocationsRejected     map[string]uint64
	AllocationDurationCount uint64
	AllocationDurationTotal int64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	verificationsStarted    uint64
	verificationsSucceeded  uint64
	allocationsSaved        uint64
	allocationDurationCount uint64
	allocationDurationTotal int64

	mu                    sync.Mutex
	verificationsRejected map[string]uint64
	verificationsFailed   map[string]uint64
	allocationsRejected   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		verificationsRejected: make(map[string]uint64),
		verificationsFailed:   make(map[string]uint64),
		allocationsRejected:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		VerificationsStarted:    atomic.LoadUint64(&m.verificationsStarted),
		VerificationsSucceeded:  atomic.LoadUint64(&m.verificationsSucceeded),
		VerificationsRejected:   maps.Clone(m.verificationsRejected),
		VerificationsFailed:     maps.Clone(m.verificationsFailed),
		AllocationsSaved:        atomic.LoadUint64(&m.allocationsSaved),
		AllocationsRejected:     maps.Clone(m.allocationsRejected),
		AllocationDurationCount: atomic.LoadUint64(&m.allocationDurationCount),
		AllocationDurationTotal: atomic.LoadInt64(&m.allocationDurationTotal),
	}
}

// IncVerificationStarted increments the issued-link counter.
func (m *InMemoryRecorder) IncVerificationStarted() {
	atomic.AddUint64(&m.verificationsStarted, 1)
}

// IncVerificationRejected increments the rejected start counter for reason.
func (m *InMemoryRecorder) IncVerificationRejected(reason string) {
	m.inc(m.verificationsRejected, reason)
}

// IncVerificationSucceeded increments the verified counter.
func (m *InMemoryRecorder) IncVerificationSucceeded() {
	atomic.AddUint64(&m.verificationsSucceeded, 1)
}

// IncVerificationFailed increments the failed verification counter for reason.
func (m *InMemoryRecorder) IncVerificationFailed(reason string) {
	m.inc(m.verificationsFailed, reason)
}

// IncAllocationSaved increments the saved allocation counter.
func (m *InMemoryRecorder) IncAllocationSaved() {
	atomic.AddUint64(&m.allocationsSaved, 1)
}

// IncAllocationRejected increments the rejected allocation counter for reason.
func (m *InMemoryRecorder) IncAllocationRejected(reason string) {
	m.inc(m.allocationsRejected, reason)
}

// ObserveAllocationDuration records the duration of an allocation write.
func (m *InMemoryRecorder) ObserveAllocationDuration(duration time.Duration) {
	atomic.AddUint64(&m.allocationDurationCount, 1)
	atomic.AddInt64(&m.allocationDurationTotal, duration.Nanoseconds())
}

func (m *InMemoryRecorder) inc(counters map[string]uint64, reason string) {
	m.mu.Lock()
	counters[reason]++
	m.mu.Unlock()
}
