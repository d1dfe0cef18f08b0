package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/locale"
	"github.com/google/uuid"
)

// handleInteraction processes every incoming interaction on its own tracked goroutine
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.track() {
		b.logger.Debug().Str("interaction_id", i.ID).Msg("Shutting down, interaction dropped")
		return
	}
	defer b.wg.Done()

	ctx := b.ctx

	// Wrap in recover middleware
	b.recoverMiddleware(func() {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			b.handleCommand(ctx, s, i.Interaction)
		case discordgo.InteractionMessageComponent:
			b.handleComponent(ctx, s, i.Interaction)
		}
	}, func() {
		b.editResponse(ctx, s, i.Interaction, locale.For(string(i.Locale)).ErrorGeneric)
	})
}

// track registers a handler with the shutdown WaitGroup unless shutdown has begun
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closing {
		return false
	}
	b.wg.Add(1)
	return true
}

// handleCommand dispatches slash commands
func (b *Bot) handleCommand(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	user := interactionUser(i)

	b.logger.Info().
		Str("command", data.Name).
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("guild_id", i.GuildID).
		Msg("Received command")

	if err := b.deferEphemeral(ctx, s, i); err != nil {
		return
	}

	if i.GuildID == "" || i.Member == nil {
		b.editResponse(ctx, s, i, b.texts(ctx, i).ServerOnly)
		return
	}

	switch data.Name {
	case CommandSummarize:
		b.handleSummarize(ctx, s, i)
	case CommandConfig:
		b.handleConfig(ctx, s, i)
	case CommandAdmin:
		b.handleAdmin(ctx, s, i)
	default:
		b.editResponse(ctx, s, i, b.texts(ctx, i).ErrorGeneric)
	}
}

// handleSummarize runs the summarize flow for one invocation
func (b *Bot) handleSummarize(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) {
	inv := Invocation{
		ID:             uuid.NewString(),
		UserID:         i.Member.User.ID,
		GuildID:        i.GuildID,
		ChannelID:      i.ChannelID,
		MemberRoleIDs:  i.Member.Roles,
		PlatformLocale: string(i.Locale),
	}

	sess := &interactionSession{
		session:     s,
		interaction: i,
		key:         inv.ID,
		userID:      inv.UserID,
		channelID:   inv.ChannelID,
		choices:     b.choices,
	}

	state := b.orchestrator.Summarize(ctx, inv, sess)

	b.logger.Debug().
		Str("invocation_id", inv.ID).
		Stringer("state", state).
		Msg("Summarize finished")
}

// handleComponent routes button presses to the waiting invocation
func (b *Bot) handleComponent(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) {
	customID := i.MessageComponentData().CustomID
	user := interactionUser(i)

	// Acknowledge without changing the message; the invocation edits it
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("custom_id", customID).
			Msg("Failed to acknowledge component")
	}

	key, option, ok := parseComponentID(customID)
	if !ok {
		b.logger.Warn().Str("custom_id", customID).Msg("Unknown component")
		return
	}

	if !b.choices.deliver(key, user.ID, option) {
		b.logger.Debug().
			Str("invocation_id", key).
			Str("user_id", user.ID).
			Msg("Choice arrived for an expired or foreign invocation")
	}
}

// interactionUser returns the invoking user in guilds and DMs
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}
