package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRecordCreated is a no-op.
func (n *NoopRecorder) IncRecordCreated(kind string) {}

// IncRecordUpdated is a no-op.
func (n *NoopRecorder) IncRecordUpdated(kind string) {}

// IncRecordDeleted is a no-op.
func (n *NoopRecorder) IncRecordDeleted(kind string) {}

// IncEmailSent is a no-op.
func (n *NoopRecorder) IncEmailSent(provider string) {}

// IncEmailFailed is a no-op.
func (n *NoopRecorder) IncEmailFailed(provider string) {}

// IncReminderSent is a no-op.
func (n *NoopRecorder) IncReminderSent() {}

// IncOverdueTransition is a no-op.
func (n *NoopRecorder) IncOverdueTransition() {}

// ObserveJobDuration is a no-op.
func (n *NoopRecorder) ObserveJobDuration(job string, duration time.Duration) {}
