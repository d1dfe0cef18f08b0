package main

import (
	"context"
	"time"

	"github.com/discord-summary-bot/internal/bot"
	"github.com/discord-summary-bot/internal/llm"
	"github.com/discord-summary-bot/internal/ratelimit"
	"github.com/discord-summary-bot/internal/scheduler"
	"github.com/discord-summary-bot/internal/storage"
	"github.com/discord-summary-bot/internal/summary"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve slash commands (default)",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	rt, err := openApp()
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger
	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Str("bot_message_filter", string(cfg.BotMessageFilter)).
		Int("max_concurrent_summaries", cfg.MaxConcurrentSummaries).
		Msg("Starting Discord summary bot")

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	if err := rt.store.Ping(ctx); err != nil {
		return err
	}

	// Admin cooldowns are shared through Redis when several replicas run
	var cooldown ratelimit.Cooldown = ratelimit.NewMemoryCooldown()
	if cfg.RedisURL != "" {
		logger.Info().Msg("Connecting to Redis for admin cooldowns...")
		redisCooldown, err := ratelimit.NewRedisCooldown(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisCooldown.Close()
		cooldown = redisCooldown
	}
	ledger := ratelimit.NewLedger(rt.store, cooldown, time.Duration(cfg.AdminCooldownMs)*time.Millisecond, logger)

	logger.Info().Msg("Initializing LLM client...")
	provider, err := llm.NewProvider(cfg, logger)
	if err != nil {
		return err
	}
	llmClient := llm.NewClient(provider, cfg, logger)
	defer func() {
		if err := llmClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close LLM client")
		}
	}()

	generator := summary.NewGenerator(llmClient, cfg.MessageLinkBase, cfg.MaxChunkLength, logger)

	discordBot, err := bot.New(cfg, rt.store, ledger, generator, logger)
	if err != nil {
		return err
	}

	backupJob, err := newBackupJob(rt)
	if err != nil {
		return err
	}
	sched := scheduler.NewScheduler(
		backupJob,
		scheduler.NewCleanupJob(ledger, cfg.RetentionDays, logger),
		logger,
	)

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Scheduler stopped with error")
		}
	}()

	logger.Info().Msg("Bot is running. Press Ctrl+C to stop.")

	// Start blocks until ctx is cancelled and in-flight handlers finish
	botErr := discordBot.Start(ctx)
	if botErr != nil {
		logger.Error().Err(botErr).Msg("Bot stopped with error")
	}

	// Bot errors must stop the scheduler too
	stop()
	<-schedDone

	logger.Info().Msg("Bot stopped")
	return botErr
}

// newBackupJob wires the offsite mirror when a bucket is configured
func newBackupJob(rt *app) (*scheduler.BackupJob, error) {
	var mirror scheduler.Mirror
	if rt.cfg.BackupS3Bucket != "" {
		s3Mirror, err := storage.NewS3Mirror(rt.cfg.BackupS3Bucket, rt.cfg.BackupS3Region, rt.logger)
		if err != nil {
			return nil, err
		}
		mirror = s3Mirror
	}
	return scheduler.NewBackupJob(rt.store, mirror, rt.cfg.BackupDir, rt.cfg.BackupKeep, rt.logger), nil
}
