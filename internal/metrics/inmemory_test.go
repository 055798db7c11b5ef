package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder(t *testing.T) {
	m := NewInMemory()

	m.IncVerificationStarted()
	m.IncVerificationStarted()
	m.IncVerificationRejected(ReasonNotAuthorized)
	m.IncVerificationSucceeded()
	m.IncVerificationFailed(ReasonInvalidOrExpired)
	m.IncAllocationSaved()
	m.IncAllocationRejected(ReasonBudgetExceeded)
	m.IncAllocationRejected(ReasonBudgetExceeded)
	m.ObserveAllocationDuration(2 * time.Millisecond)

	snap := m.Snapshot()
	if snap.VerificationsStarted != 2 {
		t.Errorf("VerificationsStarted = %d, want 2", snap.VerificationsStarted)
	}
	if snap.VerificationsRejected[ReasonNotAuthorized] != 1 {
		t.Errorf("rejected not_authorized = %d, want 1", snap.VerificationsRejected[ReasonNotAuthorized])
	}
	if snap.VerificationsFailed[ReasonInvalidOrExpired] != 1 {
		t.Errorf("failed invalid_or_expired = %d, want 1", snap.VerificationsFailed[ReasonInvalidOrExpired])
	}
	if snap.AllocationsRejected[ReasonBudgetExceeded] != 2 {
		t.Errorf("rejected budget_exceeded = %d, want 2", snap.AllocationsRejected[ReasonBudgetExceeded])
	}
	if snap.AllocationDurationCount != 1 || snap.AllocationDurationTotal != int64(2*time.Millisecond) {
		t.Errorf("unexpected duration totals: %d / %d", snap.AllocationDurationCount, snap.AllocationDurationTotal)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	m := NewInMemory()
	m.IncAllocationRejected(ReasonInvalidAmount)

	snap := m.Snapshot()
	snap.AllocationsRejected[ReasonInvalidAmount] = 99

	if got := m.Snapshot().AllocationsRejected[ReasonInvalidAmount]; got != 1 {
		t.Errorf("snapshot mutation leaked into recorder: %d", got)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	m := NewInMemory()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncAllocationSaved()
			m.IncVerificationRejected(ReasonRateLimited)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.AllocationsSaved != 50 {
		t.Errorf("AllocationsSaved = %d, want 50", snap.AllocationsSaved)
	}
	if snap.VerificationsRejected[ReasonRateLimited] != 50 {
		t.Errorf("rejected rate_limited = %d, want 50", snap.VerificationsRejected[ReasonRateLimited])
	}
}
