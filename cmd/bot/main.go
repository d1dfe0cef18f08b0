package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/discord-summary-bot/internal/config"
	"github.com/discord-summary-bot/internal/models"
	"github.com/discord-summary-bot/internal/ratelimit"
	"github.com/discord-summary-bot/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "summary-bot",
	Short:         "Discord bot that summarizes channel history into threads",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

func init() {
	rootCmd.AddCommand(runCmd, registerCommandsCmd, backupCmd, cleanupCmd, migrateCmd)
}

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the configuration and infrastructure shared by every command
type app struct {
	cfg    *models.BotConfig
	logger zerolog.Logger
	store  *storage.Store
}

// openApp loads configuration, sets up logging and opens the database.
// Migrations are applied as part of opening the store.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.Environment)

	store, err := storage.Open(cfg.DataDir, time.Duration(cfg.StorageTimeout)*time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// newLedger builds the usage ledger with the in-memory cooldown.
// Used by one-shot commands that never serve admin actions.
func (a *app) newLedger() *ratelimit.Ledger {
	return ratelimit.NewLedger(
		a.store,
		ratelimit.NewMemoryCooldown(),
		time.Duration(a.cfg.AdminCooldownMs)*time.Millisecond,
		a.logger,
	)
}

// setupLogger configures and returns a zerolog logger
func setupLogger(level, environment string) zerolog.Logger {
	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	var logger zerolog.Logger
	if environment == "development" {
		// Pretty console output for development
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
	} else {
		// JSON output for production
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return logger
}
