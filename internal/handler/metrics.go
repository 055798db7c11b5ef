package handler

import (
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/penshort/budgetdesk/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "budgetdesk_verifications_started_total %d\n", snap.VerificationsStarted)
	writeMetric(w, "budgetdesk_verifications_succeeded_total %d\n", snap.VerificationsSucceeded)
	writeLabeled(w, "budgetdesk_verifications_rejected_total", snap.VerificationsRejected)
	writeLabeled(w, "budgetdesk_verifications_failed_total", snap.VerificationsFailed)

	writeMetric(w, "budgetdesk_allocations_saved_total %d\n", snap.AllocationsSaved)
	writeLabeled(w, "budgetdesk_allocations_rejected_total", snap.AllocationsRejected)
	writeMetric(w, "budgetdesk_allocation_duration_seconds_count %d\n", snap.AllocationDurationCount)
	writeMetric(w, "budgetdesk_allocation_duration_seconds_sum %.6f\n", float64(snap.AllocationDurationTotal)/1e9)
}

// writeLabeled writes one sample per reason, in label order.
func writeLabeled(w http.ResponseWriter, name string, counts map[string]uint64) {
	for _, reason := range slices.Sorted(maps.Keys(counts)) {
		writeMetric(w, "%s{reason=%q} %d\n", name, reason, counts[reason])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
