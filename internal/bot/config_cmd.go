package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/locale"
)

const languageAuto = "auto"

// handleConfig handles /config show and /config language
func (b *Bot) handleConfig(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) {
	reply := b.configReply(ctx, i.Member.User.ID, i.GuildID, string(i.Locale), i.ApplicationCommandData())
	b.editResponse(ctx, s, i, reply)
}

// configReply runs one /config subcommand and returns the text to show.
// "auto" clears the stored locale so the Discord client locale applies.
func (b *Bot) configReply(ctx context.Context, userID, guildID, platformLocale string, data discordgo.ApplicationCommandInteractionData) string {
	if len(data.Options) == 0 {
		return b.textsFor(ctx, userID, guildID, platformLocale).ErrorConfig
	}
	sub := data.Options[0]

	switch sub.Name {
	case "show":
		cfg, err := b.store.GetUserConfig(ctx, userID, guildID)
		if err != nil {
			b.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load user config")
			return locale.For(platformLocale).ErrorConfig
		}
		text := locale.For(effectiveLocale(cfg.Locale, platformLocale))
		return text.ConfigCurrent(languageName(cfg.Locale, text))

	case "language":
		value := stringOption(sub.Options, "language")
		if value == "" {
			value = languageAuto
		}

		stored := ""
		if value != languageAuto {
			if !locale.IsSupported(value) {
				b.logger.Warn().Str("user_id", userID).Str("locale", value).Msg("Unsupported locale requested")
				return b.textsFor(ctx, userID, guildID, platformLocale).ErrorConfig
			}
			stored = value
		}

		if err := b.store.SetUserLocale(ctx, userID, guildID, stored); err != nil {
			b.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to update user locale")
			return b.textsFor(ctx, userID, guildID, platformLocale).ErrorConfig
		}

		b.logger.Info().
			Str("user_id", userID).
			Str("guild_id", guildID).
			Str("locale", value).
			Msg("User locale updated")

		text := locale.For(effectiveLocale(stored, platformLocale))
		return text.ConfigUpdated(languageName(stored, text))

	default:
		return b.textsFor(ctx, userID, guildID, platformLocale).ErrorConfig
	}
}

func effectiveLocale(stored, platform string) string {
	if stored != "" {
		return stored
	}
	return platform
}

// languageName renders a stored locale for the user
func languageName(stored string, text *locale.Strings) string {
	if stored == "" {
		return text.AutoLanguage
	}
	return locale.Name(locale.Normalize(stored))
}
