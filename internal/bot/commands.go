package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandSummarize = "summarize"
	CommandConfig    = "config"
	CommandAdmin     = "admin"
)

var (
	adminPermission int64 = discordgo.PermissionAdministrator
	dmPermission          = false
)

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        CommandSummarize,
		Description: "Summarize recent messages in this channel",
		DescriptionLocalizations: &map[discordgo.Locale]string{
			discordgo.Polish: "Podsumuj ostatnie wiadomości na tym kanale",
		},
		DMPermission: &dmPermission,
	},
	{
		Name:        CommandConfig,
		Description: "Configure your personal settings",
		DescriptionLocalizations: &map[discordgo.Locale]string{
			discordgo.Polish: "Skonfiguruj swoje ustawienia",
		},
		DMPermission: &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show your current configuration",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "language",
				Description: "Set the language of summaries and messages",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "language",
						Description: "Language to use",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Auto (Discord)", Value: languageAuto},
							{Name: "English", Value: "en"},
							{Name: "Polski", Value: "pl"},
						},
					},
				},
			},
		},
	},
	{
		Name:                     CommandAdmin,
		Description:              "Admin commands for managing the summarizer",
		DefaultMemberPermissions: &adminPermission,
		DMPermission:             &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "setlimit",
				Description: "Set the maximum number of daily uses per user",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "limit",
						Description: "The new daily usage limit",
						Required:    true,
						MinValue:    ptrFloat(1),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "addrole",
				Description: "Add a role that has unlimited usage",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "The role to add",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "removerole",
				Description: "Remove a role from unlimited usage",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "The role to remove",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show current usage limit settings",
			},
		},
	},
}

func ptrFloat(v float64) *float64 {
	return &v
}

// Commands returns the slash command definitions
func Commands() []*discordgo.ApplicationCommand {
	return commandDefinitions
}

// RegisterCommands replaces the application's commands with the current set.
// An empty guildID registers them globally.
func RegisterCommands(ctx context.Context, s *discordgo.Session, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if appID == "" {
		self, err := s.User("@me", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve application id: %w", err)
		}
		appID = self.ID
	}

	registered, err := s.ApplicationCommandBulkOverwrite(appID, guildID, commandDefinitions, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}
	return registered, nil
}
