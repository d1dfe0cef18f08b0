package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Backuper writes a rotated copy of the database
type Backuper interface {
	Backup(ctx context.Context, dir string, keep int) (string, error)
}

// Mirror copies a local backup somewhere offsite
type Mirror interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// UsageCleaner deletes usage rows older than the retention window
type UsageCleaner interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

// BackupJob snapshots the database and optionally mirrors the snapshot
type BackupJob struct {
	store  Backuper
	mirror Mirror // nil when no offsite bucket is configured
	dir    string
	keep   int
	logger zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(store Backuper, mirror Mirror, dir string, keep int, logger zerolog.Logger) *BackupJob {
	return &BackupJob{
		store:  store,
		mirror: mirror,
		dir:    dir,
		keep:   keep,
		logger: logger.With().Str("component", "backup_job").Logger(),
	}
}

// Run executes the backup job and returns the local backup path
func (j *BackupJob) Run(ctx context.Context) (string, error) {
	startTime := time.Now()

	path, err := j.store.Backup(ctx, j.dir, j.keep)
	if err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}

	if j.mirror != nil {
		key, err := j.mirror.Upload(ctx, path)
		if err != nil {
			// The local copy is still good
			j.logger.Error().
				Err(err).
				Str("path", path).
				Msg("Failed to mirror backup")
		} else {
			j.logger.Info().
				Str("key", key).
				Msg("Backup mirrored")
		}
	}

	j.logger.Info().
		Str("path", path).
		Dur("duration", time.Since(startTime)).
		Msg("Backup job completed")

	return path, nil
}

// CleanupJob removes usage rows past the retention window
type CleanupJob struct {
	ledger        UsageCleaner
	retentionDays int
	logger        zerolog.Logger
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(ledger UsageCleaner, retentionDays int, logger zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		ledger:        ledger,
		retentionDays: retentionDays,
		logger:        logger.With().Str("component", "cleanup_job").Logger(),
	}
}

// Run executes the cleanup job and returns the number of deleted rows
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	deleted, err := j.ledger.Cleanup(ctx, j.retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up usage: %w", err)
	}

	j.logger.Info().
		Int64("deleted", deleted).
		Int("retention_days", j.retentionDays).
		Msg("Cleanup job completed")

	return deleted, nil
}
