package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// BackupSpec runs the database backup once a day
	BackupSpec = "@every 24h"
	// CleanupSpec runs usage cleanup at 03:00 UTC
	CleanupSpec = "0 3 * * *"

	stopBudget = 30 * time.Second
)

// Scheduler runs periodic maintenance: database backups and usage cleanup
type Scheduler struct {
	cron    *cron.Cron
	backup  *BackupJob
	cleanup *CleanupJob
	logger  zerolog.Logger
}

// NewScheduler creates a new scheduler. Either job may be nil to disable it.
func NewScheduler(backup *BackupJob, cleanup *CleanupJob, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		backup:  backup,
		cleanup: cleanup,
		logger:  logger,
	}
}

// Start registers the jobs and blocks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting scheduler...")

	if err := s.register(ctx); err != nil {
		return err
	}

	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		s.logger.Info().
			Int("entry_id", int(entry.ID)).
			Time("next_run", entry.Next).
			Msg("Scheduled job")
	}

	s.logger.Info().Msg("Scheduler started and running")

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopBudget):
		s.logger.Warn().Msg("Timed out waiting for running jobs")
	}

	s.logger.Info().Msg("Scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) register(ctx context.Context) error {
	if s.backup != nil {
		if _, err := s.cron.AddFunc(BackupSpec, func() { s.runBackup(ctx) }); err != nil {
			return fmt.Errorf("failed to schedule backup: %w", err)
		}
	}
	if s.cleanup != nil {
		if _, err := s.cron.AddFunc(CleanupSpec, func() { s.runCleanup(ctx) }); err != nil {
			return fmt.Errorf("failed to schedule cleanup: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) runBackup(ctx context.Context) {
	s.logger.Info().Msg("Starting scheduled backup")

	if _, err := s.backup.Run(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled backup failed")
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	s.logger.Info().Msg("Starting scheduled usage cleanup")

	if _, err := s.cleanup.Run(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled usage cleanup failed")
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
