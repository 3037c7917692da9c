// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Record store metrics, labeled by record kind.
	IncRecordCreated(kind string)
	IncRecordUpdated(kind string)
	IncRecordDeleted(kind string)

	// Email delivery metrics, labeled by provider.
	IncEmailSent(provider string)
	IncEmailFailed(provider string)

	// Background job metrics.
	IncReminderSent()
	IncOverdueTransition()
	ObserveJobDuration(job string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
