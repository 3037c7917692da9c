package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/finwell/finwell/internal/cache"
	"github.com/finwell/finwell/internal/config"
	"github.com/finwell/finwell/internal/mailer"
	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/scheduler"
	"github.com/finwell/finwell/internal/store"
)

// NewSweepCommand creates the sweep command. It runs the overdue
// sweep once, outside the daily schedule.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the overdue bill sweep once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			sweep := scheduler.NewOverdueSweep(st, slog.Default())
			if err := sweep.Run(ctx, model.Today()); err != nil {
				return fmt.Errorf("overdue sweep: %w", err)
			}
			return nil
		},
	}
}

// NewRemindCommand creates the remind command. It runs the reminder
// batch once, with the same Redis-backed dedupe the scheduler uses, so
// an extra run never double-sends.
func NewRemindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the bill reminder batch once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			cacheClient, err := cache.New(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect to Redis: %w", err)
			}
			defer cacheClient.Close()

			renderer, err := mailer.NewRenderer()
			if err != nil {
				return fmt.Errorf("load email templates: %w", err)
			}
			dispatcher := mailer.NewDispatcher(renderer, slog.Default(), nil,
				mailer.NewAPIProvider(cfg.MailAPIURL, cfg.MailAPIToken, cfg.MailFromEmail, cfg.MailFromName),
				mailer.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFromName),
			)

			batch := scheduler.NewReminderBatch(st, dispatcher, cacheClient, cfg.DefaultReminderDays, cfg.BaseURL, slog.Default())
			if err := batch.Run(ctx, model.Today()); err != nil {
				return fmt.Errorf("reminder batch: %w", err)
			}
			return nil
		},
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.StorageBackend, cfg.DataDir, cfg.DatabaseURL, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	return st, nil
}
