package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/finwell/finwell/internal/metrics"
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

	writeLabeled(w, "finwell_records_created_total", "kind", snap.RecordsCreated)
	writeLabeled(w, "finwell_records_updated_total", "kind", snap.RecordsUpdated)
	writeLabeled(w, "finwell_records_deleted_total", "kind", snap.RecordsDeleted)

	writeLabeled(w, "finwell_emails_sent_total", "provider", snap.EmailsSent)
	writeLabeled(w, "finwell_emails_failed_total", "provider", snap.EmailsFailed)

	writeMetric(w, "finwell_reminders_sent_total %d\n", snap.RemindersSent)
	writeMetric(w, "finwell_overdue_transitions_total %d\n", snap.OverdueTransitions)

	writeLabeled(w, "finwell_job_runs_total", "job", snap.JobRuns)
	for _, job := range sortedKeys(snap.JobDurationTotalNs) {
		writeMetric(w, "finwell_job_duration_seconds_sum{job=%q} %.6f\n",
			job, float64(snap.JobDurationTotalNs[job])/1e9)
	}
}

// writeLabeled emits one series per label value, sorted for stable
// output.
func writeLabeled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	for _, key := range sortedKeys(values) {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, key, values[key])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
