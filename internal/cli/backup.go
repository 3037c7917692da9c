package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// BackupOptions holds flags for the backup command.
type BackupOptions struct {
	*RootOptions
	DataDir    string
	BackupFile string
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Append a snapshot of the file-backend data files to a backup log",
		Long: `Snapshot every JSON data file in the data directory into an
append-only backup file, one JSON entry per line. Each entry carries
the snapshot timestamp, the source filename and the file's contents.

Example:
  finwell-admin backup --data-dir data --backup-file data/backup.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "data", "data directory to snapshot")
	cmd.Flags().StringVar(&opts.BackupFile, "backup-file", "data/backup.jsonl", "append-only backup destination")

	return cmd
}

// backupEntry is one snapshot line in the backup file.
type backupEntry struct {
	Timestamp string          `json:"timestamp"`
	Filename  string          `json:"filename"`
	Data      json.RawMessage `json:"data"`
}

func runBackup(opts *BackupOptions) error {
	entries, err := os.ReadDir(opts.DataDir)
	if err != nil {
		return fmt.Errorf("read data dir: %w", err)
	}

	if dir := filepath.Dir(opts.BackupFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create backup dir: %w", err)
		}
	}

	out, err := os.OpenFile(opts.BackupFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer out.Close()

	timestamp := time.Now().UTC().Format(time.RFC3339)
	enc := json.NewEncoder(out)

	backed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(opts.DataDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("backup read failed", "file", entry.Name(), "error", err)
			continue
		}
		if !json.Valid(data) {
			slog.Error("backup skipping invalid JSON", "file", entry.Name())
			continue
		}

		if err := enc.Encode(backupEntry{
			Timestamp: timestamp,
			Filename:  entry.Name(),
			Data:      data,
		}); err != nil {
			return fmt.Errorf("write backup entry for %s: %w", entry.Name(), err)
		}

		slog.Info("backed up", "file", entry.Name())
		backed++
	}

	slog.Info("backup complete", "files", backed, "destination", opts.BackupFile)
	return nil
}
