package bot

import (
	"context"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/locale"
)

// recoverMiddleware handles panics in interaction handlers. onPanic runs after
// a recovered panic so the user still gets a final response.
func (b *Bot) recoverMiddleware(handler func(), onPanic func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Panic recovered in handler")
			if onPanic != nil {
				onPanic()
			}
		}
	}()

	handler()
}

// deferEphemeral acknowledges a command with a private "thinking" response
func (b *Bot) deferEphemeral(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) error {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("interaction_id", i.ID).
			Msg("Failed to acknowledge interaction")
	}
	return err
}

// editResponse replaces the deferred response text
func (b *Bot) editResponse(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction, text string) {
	_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content: &text,
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("interaction_id", i.ID).
			Msg("Failed to edit response")
	}
}

// texts returns the string table for the invoking user
func (b *Bot) texts(ctx context.Context, i *discordgo.Interaction) *locale.Strings {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return locale.For(string(i.Locale))
	}
	return b.textsFor(ctx, i.Member.User.ID, i.GuildID, string(i.Locale))
}

func (b *Bot) textsFor(ctx context.Context, userID, guildID, platformLocale string) *locale.Strings {
	loc, err := b.resolver.Resolve(ctx, userID, guildID, platformLocale)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to resolve locale, using platform locale")
		return locale.For(platformLocale)
	}
	return locale.For(loc)
}
