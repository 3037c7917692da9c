package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/store"
)

// OverdueSweep transitions past-due pending and unpaid bills to
// overdue. Paid bills are never touched, and an already-overdue bill
// is a no-op, so re-running the sweep is safe.
type OverdueSweep struct {
	store   store.Store
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewOverdueSweep creates the sweep job.
func NewOverdueSweep(st store.Store, logger *slog.Logger) *OverdueSweep {
	return &OverdueSweep{
		store:   st,
		logger:  logger.With("component", "scheduler.sweep"),
		metrics: metrics.NewNoop(),
	}
}

// WithMetrics attaches a metrics recorder for overdue transitions.
func (s *OverdueSweep) WithMetrics(m metrics.Recorder) *OverdueSweep {
	s.metrics = m
	return s
}

// Name implements Job.
func (s *OverdueSweep) Name() string { return "overdue-sweep" }

// Run scans all bills and persists the overdue transitions.
func (s *OverdueSweep) Run(ctx context.Context, today model.Date) error {
	records, err := s.store.FilterByKind(ctx, model.KindBill)
	if err != nil {
		return fmt.Errorf("load bills: %w", err)
	}

	var updated int
	for _, rec := range records {
		bill, ok := rec.Payload.(*model.Bill)
		if !ok {
			continue
		}
		if !bill.ShouldBeOverdue(today) {
			continue
		}

		bill.Status = model.BillStatusOverdue
		if err := s.store.UpdateByID(ctx, rec.ID, bill); err != nil {
			// A record deleted mid-sweep is not a failure.
			s.logger.Warn("skip overdue update", "record_id", rec.ID, "error", err)
			continue
		}
		s.metrics.IncOverdueTransition()
		updated++
	}

	s.logger.Info("overdue sweep completed", "scanned", len(records), "updated", updated)
	return nil
}
