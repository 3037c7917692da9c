package mailer

import (
	"context"

	"github.com/finwell/finwell/internal/metrics"
)

// MetricsRecorder counts delivery outcomes per provider.
type MetricsRecorder struct {
	metrics metrics.Recorder
}

// NewMetricsRecorder wraps a metrics recorder as a DeliveryRecorder.
func NewMetricsRecorder(m metrics.Recorder) *MetricsRecorder {
	return &MetricsRecorder{metrics: m}
}

// Record implements DeliveryRecorder.
func (r *MetricsRecorder) Record(_ context.Context, entry *DeliveryEntry) {
	if entry.Succeeded {
		r.metrics.IncEmailSent(entry.Provider)
	} else {
		r.metrics.IncEmailFailed(entry.Provider)
	}
}

// FanoutRecorder forwards each delivery outcome to several recorders.
type FanoutRecorder []DeliveryRecorder

// Record implements DeliveryRecorder.
func (f FanoutRecorder) Record(ctx context.Context, entry *DeliveryEntry) {
	for _, r := range f {
		r.Record(ctx, entry)
	}
}
