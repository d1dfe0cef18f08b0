package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/locale"
	"github.com/discord-summary-bot/internal/models"
	"github.com/discord-summary-bot/internal/ratelimit"
)

// directory resolves display names for the settings view
type directory interface {
	RoleName(guildID, roleID string) (string, error)
	UserName(ctx context.Context, userID string) (string, error)
}

// sessionDirectory looks names up in the gateway state and the REST API
type sessionDirectory struct {
	session *discordgo.Session
}

func (d sessionDirectory) RoleName(guildID, roleID string) (string, error) {
	role, err := d.session.State.Role(guildID, roleID)
	if err != nil {
		return "", err
	}
	return role.Name, nil
}

func (d sessionDirectory) UserName(ctx context.Context, userID string) (string, error) {
	user, err := d.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if user.GlobalName != "" {
		return user.GlobalName, nil
	}
	return user.Username, nil
}

// handleAdmin handles /admin subcommands
func (b *Bot) handleAdmin(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) {
	text := b.texts(ctx, i)
	reply := b.adminReply(ctx, sessionDirectory{session: s}, i.Member.User.ID, i.GuildID, i.Member.Permissions, i.ApplicationCommandData(), text)
	b.editResponse(ctx, s, i, reply)
}

// adminReply runs one /admin subcommand and returns the text to show
func (b *Bot) adminReply(
	ctx context.Context,
	dir directory,
	actorID, guildID string,
	permissions int64,
	data discordgo.ApplicationCommandInteractionData,
	text *locale.Strings,
) string {
	if len(data.Options) == 0 {
		return text.ErrorGeneric
	}

	// The command is hidden from non-admins, but permissions can be overridden per guild
	if permissions&discordgo.PermissionAdministrator == 0 {
		b.logger.Warn().
			Str("user_id", actorID).
			Str("guild_id", guildID).
			Msg("Admin command used without administrator permission")
		return text.ErrorGeneric
	}

	sub := data.Options[0]

	var reply string
	var err error

	switch sub.Name {
	case "setlimit":
		limit, _ := intOption(sub.Options, "limit")
		if err = b.ledger.SetQuota(ctx, actorID, guildID, limit); err == nil {
			reply = text.LimitUpdated(limit)
		}

	case "addrole":
		roleID := stringOption(sub.Options, "role")
		if err = b.ledger.AddExemptRole(ctx, actorID, guildID, roleID); err == nil {
			reply = text.RoleAdded(resolvedRoleName(data, roleID))
		}

	case "removerole":
		roleID := stringOption(sub.Options, "role")
		if err = b.ledger.RemoveExemptRole(ctx, actorID, guildID, roleID); err == nil {
			reply = text.RoleRemoved(resolvedRoleName(data, roleID))
		}

	case "show":
		var settings *models.GuildSettings
		if settings, err = b.ledger.Settings(ctx, guildID, b.ledger.Today()); err == nil {
			reply = b.renderSettings(ctx, dir, settings, text)
		}

	default:
		err = fmt.Errorf("unknown admin subcommand %q", sub.Name)
	}

	if err != nil {
		b.logger.Error().
			Err(err).
			Str("subcommand", sub.Name).
			Str("user_id", actorID).
			Str("guild_id", guildID).
			Msg("Admin command failed")
		return adminErrorText(err, text)
	}

	return reply
}

func adminErrorText(err error, text *locale.Strings) string {
	var verr *ratelimit.ValidationError
	switch {
	case errors.Is(err, ratelimit.ErrCooldown):
		return text.Cooldown
	case errors.As(err, &verr) && verr.Field == "limit":
		return text.InvalidLimit
	case errors.As(err, &verr) && verr.Field == "role":
		return text.InvalidRole
	default:
		return text.ErrorGeneric
	}
}

// renderSettings formats the admin settings view. Lookups that fail fall back to raw IDs.
func (b *Bot) renderSettings(ctx context.Context, dir directory, settings *models.GuildSettings, text *locale.Strings) string {
	var sb strings.Builder

	sb.WriteString(text.SettingsHeader(settings.MaxDailyUses))
	sb.WriteString("\n")

	if len(settings.ExemptRoles) == 0 {
		sb.WriteString(text.NoExemptRoles())
	} else {
		names := make([]string, 0, len(settings.ExemptRoles))
		for _, roleID := range settings.ExemptRoles {
			name, err := dir.RoleName(settings.GuildID, roleID)
			if err != nil || name == "" {
				name = "Unknown Role (" + roleID + ")"
			}
			names = append(names, name)
		}
		sb.WriteString(text.ExemptRoles(names))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("\n**%s**\n", settings.Date))
	if len(settings.Usage) == 0 {
		sb.WriteString(text.NoUsageToday())
		return sb.String()
	}
	for _, u := range settings.Usage {
		name, err := dir.UserName(ctx, u.UserID)
		if err != nil || name == "" {
			b.logger.Debug().Err(err).Str("user_id", u.UserID).Msg("Failed to look up user")
			name = "User " + u.UserID
		}
		sb.WriteString(fmt.Sprintf("%s: %d/%d\n", name, u.Uses, settings.MaxDailyUses))
	}
	return sb.String()
}

func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (int, bool) {
	for _, opt := range options {
		if opt.Name == name {
			// Discord sends integers as JSON numbers
			if v, ok := opt.Value.(float64); ok {
				return int(v), true
			}
		}
	}
	return 0, false
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

func resolvedRoleName(data discordgo.ApplicationCommandInteractionData, roleID string) string {
	if data.Resolved != nil {
		if role, ok := data.Resolved.Roles[roleID]; ok && role != nil {
			return role.Name
		}
	}
	return roleID
}
