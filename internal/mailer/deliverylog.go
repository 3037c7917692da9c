package mailer

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// SQLDeliveryLog persists delivery outcomes to the delivery_log table
// for auditing. It is optional: when no database URL is configured the
// dispatcher runs without a recorder.
type SQLDeliveryLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLDeliveryLog opens the audit database.
func NewSQLDeliveryLog(databaseURL string, logger *slog.Logger) (*SQLDeliveryLog, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLDeliveryLog{
		db:     db,
		logger: logger.With("component", "mailer.deliverylog"),
	}, nil
}

// Record inserts one delivery outcome. Failures are logged, never
// propagated: the audit log must not break email delivery.
func (l *SQLDeliveryLog) Record(ctx context.Context, entry *DeliveryEntry) {
	query := `
		INSERT INTO delivery_log (
			recipient, template_key, provider, attempts, succeeded, error, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := l.db.ExecContext(ctx, query,
		entry.To,
		string(entry.TemplateKey),
		entry.Provider,
		entry.Attempts,
		entry.Succeeded,
		entry.Error,
		entry.SentAt,
	)
	if err != nil {
		l.logger.Error("record delivery outcome", "error", err, "to", entry.To)
	}
}

// Close releases the audit database connection.
func (l *SQLDeliveryLog) Close() error {
	return l.db.Close()
}
