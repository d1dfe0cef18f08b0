package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/fetcher"
	"github.com/discord-summary-bot/internal/locale"
	"github.com/discord-summary-bot/internal/models"
	"github.com/discord-summary-bot/internal/ratelimit"
	"github.com/discord-summary-bot/internal/storage"
	"github.com/discord-summary-bot/internal/summary"
	"github.com/rs/zerolog"
)

// shutdownBudget bounds how long Start waits for in-flight handlers
const shutdownBudget = 10 * time.Second

// Bot represents the Discord bot
type Bot struct {
	session      *discordgo.Session
	config       *models.BotConfig
	store        *storage.Store
	ledger       *ratelimit.Ledger
	resolver     *locale.Resolver
	generator    *summary.Generator
	orchestrator *Orchestrator
	choices      *choiceRegistry
	logger       zerolog.Logger
	ctx          context.Context // handler context, outlives Start's ctx until the shutdown budget ends

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup // Tracks active handlers for graceful shutdown
}

// New creates a new bot instance
func New(
	config *models.BotConfig,
	store *storage.Store,
	ledger *ratelimit.Ledger,
	generator *summary.Generator,
	logger zerolog.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	// Set debug mode based on log level
	if config.LogLevel == "debug" {
		session.LogLevel = discordgo.LogInformational
	}

	b := &Bot{
		session:   session,
		config:    config,
		store:     store,
		ledger:    ledger,
		resolver:  locale.NewResolver(store),
		generator: generator,
		choices:   newChoiceRegistry(),
		logger:    logger.With().Str("component", "bot").Logger(),
		ctx:       context.Background(),
	}

	session.AddHandler(b.handleReady)
	session.AddHandler(b.handleInteraction)

	return b, nil
}

// Start connects to the gateway and blocks until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Msg("Starting bot...")

	// In-flight handlers keep working after ctx is cancelled, up to shutdownBudget
	handlerCtx, cancelHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelHandlers()
	b.ctx = handlerCtx

	// Everything handlers use is built before the gateway starts dispatching
	self, err := b.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to fetch bot user: %w", err)
	}
	b.logger.Info().
		Str("username", self.Username).
		Str("id", self.ID).
		Msg("Discord bot authorized")

	// The fetcher needs our own user ID to drop our messages
	source := fetcher.NewDiscordSource(b.session)
	msgFetcher := fetcher.NewFetcher(source, self.ID, b.config.BotMessageFilter, b.config.FetchPageSize, b.logger)
	b.orchestrator = NewOrchestrator(
		b.ledger,
		b.resolver,
		msgFetcher,
		b.generator,
		b.store,
		b.config.LLMProvider,
		b.config.LLMModel,
		b.config.MaxConcurrentSummaries,
		b.config.ChoiceTimeoutDuration(),
		b.logger,
	)

	if b.config.RegisterCommands {
		registered, err := RegisterCommands(ctx, b.session, b.config.DiscordAppID, b.config.DiscordGuildID)
		if err != nil {
			return err
		}
		b.logger.Info().
			Int("count", len(registered)).
			Str("guild_id", b.config.DiscordGuildID).
			Msg("Slash commands registered")
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	b.logger.Info().Msg("Bot started, waiting for interactions...")

	<-ctx.Done()

	b.logger.Info().Msg("Shutting down bot...")
	if err := b.session.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to close discord session cleanly")
	}

	// No new handlers may join the WaitGroup from here on
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	// Wait for all active handlers to complete
	b.logger.Info().Msg("Waiting for active handlers to complete...")
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info().Msg("All handlers completed")
	case <-time.After(shutdownBudget):
		b.logger.Warn().
			Int("pending_choices", b.choices.len()).
			Msg("Timed out waiting for handlers")
		cancelHandlers()
	}

	return nil
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info().
		Int("guilds", len(event.Guilds)).
		Msg("Gateway ready")
}
