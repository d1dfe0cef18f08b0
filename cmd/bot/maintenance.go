package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/bot"
	"github.com/discord-summary-bot/internal/scheduler"
	"github.com/spf13/cobra"
)

var registerCommandsCmd = &cobra.Command{
	Use:   "register-commands",
	Short: "Overwrite the bot's slash commands and exit",
	Long: `Overwrite the bot's slash commands and exit.

Commands are registered globally unless --guild (or DISCORD_GUILD_ID) is set,
in which case they appear in that guild immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openApp()
		if err != nil {
			return err
		}
		defer rt.close()

		guildID, _ := cmd.Flags().GetString("guild")
		if guildID == "" {
			guildID = rt.cfg.DiscordGuildID
		}

		session, err := discordgo.New("Bot " + rt.cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("failed to create discord session: %w", err)
		}

		registered, err := bot.RegisterCommands(cmd.Context(), session, rt.cfg.DiscordAppID, guildID)
		if err != nil {
			return err
		}
		for _, c := range registered {
			fmt.Fprintf(os.Stdout, "registered /%s (%s)\n", c.Name, c.ID)
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a database backup now and prune old copies",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openApp()
		if err != nil {
			return err
		}
		defer rt.close()

		job, err := newBackupJob(rt)
		if err != nil {
			return err
		}

		path, err := job.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete usage records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openApp()
		if err != nil {
			return err
		}
		defer rt.close()

		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = rt.cfg.RetentionDays
		}

		deleted, err := scheduler.NewCleanupJob(rt.newLedger(), days, rt.logger).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "deleted %d usage records\n", deleted)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and list applied versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openApp()
		if err != nil {
			return err
		}
		defer rt.close()

		versions, err := rt.store.AppliedMigrations(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "applied migrations: %v\n", versions)
		return nil
	},
}

func init() {
	registerCommandsCmd.Flags().String("guild", "", "register commands in this guild only")
	cleanupCmd.Flags().Int("days", 0, "retention window in days (defaults to USAGE_RETENTION_DAYS)")
}
