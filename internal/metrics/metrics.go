// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Rejection and failure reasons used as metric labels.
const (
	ReasonNotAuthorized    = "not_authorized"
	ReasonRateLimited      = "rate_limited"
	ReasonDeliveryFailed   = "delivery_failed"
	ReasonInvalidLink      = "invalid_link"
	ReasonInvalidOrExpired = "invalid_or_expired"
	ReasonInvalidAmount    = "invalid_amount"
	ReasonBudgetExceeded   = "budget_exceeded"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Verification metrics
	IncVerificationStarted()
	IncVerificationRejected(reason string) // not_authorized, rate_limited, delivery_failed
	IncVerificationSucceeded()
	IncVerificationFailed(reason string) // invalid_link, invalid_or_expired

	// Allocation metrics
	IncAllocationSaved()
	IncAllocationRejected(reason string) // invalid_amount, budget_exceeded
	ObserveAllocationDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
