package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncVerificationStarted is a no-op.
func (n *NoopRecorder) IncVerificationStarted() {}

// IncVerificationRejected is a no-op.
func (n *NoopRecorder) IncVerificationRejected(reason string) {}

// IncVerificationSucceeded is a no-op.
func (n *NoopRecorder) IncVerificationSucceeded() {}

// IncVerificationFailed is a no-op.
func (n *NoopRecorder) IncVerificationFailed(reason string) {}

// IncAllocationSaved is a no-op.
func (n *NoopRecorder) IncAllocationSaved() {}

// IncAllocationRejected is a no-op.
func (n *NoopRecorder) IncAllocationRejected(reason string) {}

// ObserveAllocationDuration is a no-op.
func (n *NoopRecorder) ObserveAllocationDuration(duration time.Duration) {}
