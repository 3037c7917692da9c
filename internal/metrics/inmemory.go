package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RecordsCreated     map[string]uint64
	RecordsUpdated     map[string]uint64
	RecordsDeleted     map[string]uint64
	EmailsSent         map[string]uint64
	EmailsFailed       map[string]uint64
	RemindersSent      uint64
	OverdueTransitions uint64
	JobRuns            map[string]uint64
	JobDurationTotalNs map[string]int64
}

// InMemoryRecorder stores metrics in memory. It backs the admin
// metrics endpoint and tests.
type InMemoryRecorder struct {
	mu                 sync.Mutex
	recordsCreated     map[string]uint64
	recordsUpdated     map[string]uint64
	recordsDeleted     map[string]uint64
	emailsSent         map[string]uint64
	emailsFailed       map[string]uint64
	jobRuns            map[string]uint64
	jobDurationTotalNs map[string]int64

	remindersSent      uint64
	overdueTransitions uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		recordsCreated:     make(map[string]uint64),
		recordsUpdated:     make(map[string]uint64),
		recordsDeleted:     make(map[string]uint64),
		emailsSent:         make(map[string]uint64),
		emailsFailed:       make(map[string]uint64),
		jobRuns:            make(map[string]uint64),
		jobDurationTotalNs: make(map[string]int64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		RecordsCreated:     maps.Clone(m.recordsCreated),
		RecordsUpdated:     maps.Clone(m.recordsUpdated),
		RecordsDeleted:     maps.Clone(m.recordsDeleted),
		EmailsSent:         maps.Clone(m.emailsSent),
		EmailsFailed:       maps.Clone(m.emailsFailed),
		RemindersSent:      atomic.LoadUint64(&m.remindersSent),
		OverdueTransitions: atomic.LoadUint64(&m.overdueTransitions),
		JobRuns:            maps.Clone(m.jobRuns),
		JobDurationTotalNs: maps.Clone(m.jobDurationTotalNs),
	}
}

// IncRecordCreated increments the created counter for a record kind.
func (m *InMemoryRecorder) IncRecordCreated(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordsCreated[kind]++
}

// IncRecordUpdated increments the updated counter for a record kind.
func (m *InMemoryRecorder) IncRecordUpdated(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordsUpdated[kind]++
}

// IncRecordDeleted increments the deleted counter for a record kind.
func (m *InMemoryRecorder) IncRecordDeleted(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordsDeleted[kind]++
}

// IncEmailSent increments the delivered counter for a provider.
func (m *InMemoryRecorder) IncEmailSent(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailsSent[provider]++
}

// IncEmailFailed increments the failed counter for a provider.
func (m *InMemoryRecorder) IncEmailFailed(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailsFailed[provider]++
}

// IncReminderSent increments the reminder counter.
func (m *InMemoryRecorder) IncReminderSent() {
	atomic.AddUint64(&m.remindersSent, 1)
}

// IncOverdueTransition increments the sweep transition counter.
func (m *InMemoryRecorder) IncOverdueTransition() {
	atomic.AddUint64(&m.overdueTransitions, 1)
}

// ObserveJobDuration records one background job run.
func (m *InMemoryRecorder) ObserveJobDuration(job string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobRuns[job]++
	m.jobDurationTotalNs[job] += duration.Nanoseconds()
}
