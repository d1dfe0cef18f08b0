package bot

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/locale"
	"github.com/discord-summary-bot/internal/ratelimit"
	"github.com/discord-summary-bot/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// newTestBot builds a bot over an in-memory store without a gateway connection
func newTestBot(t *testing.T) (*Bot, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:", 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Bot{
		store:    store,
		ledger:   ratelimit.NewLedger(store, ratelimit.NewMemoryCooldown(), 5*time.Second, zerolog.Nop()),
		resolver: locale.NewResolver(store),
		choices:  newChoiceRegistry(),
		logger:   zerolog.Nop(),
		ctx:      context.Background(),
	}, store
}

func subcommand(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) discordgo.ApplicationCommandInteractionData {
	return discordgo.ApplicationCommandInteractionData{
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name:    name,
			Type:    discordgo.ApplicationCommandOptionSubCommand,
			Options: options,
		}},
	}
}

func stringArg(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func intArg(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	// Discord delivers integer options as JSON numbers
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}
