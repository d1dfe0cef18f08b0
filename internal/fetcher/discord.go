package fetcher

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/discord-summary-bot/internal/models"
)

// DiscordSource reads channel history through the Discord REST API
type DiscordSource struct {
	session *discordgo.Session
}

// NewDiscordSource creates a page source backed by a discordgo session
func NewDiscordSource(session *discordgo.Session) *DiscordSource {
	return &DiscordSource{session: session}
}

// FetchPage implements PageSource
func (d *DiscordSource) FetchPage(ctx context.Context, channelID string, limit int, beforeID string) ([]models.FetchedMessage, error) {
	msgs, err := d.session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	page := make([]models.FetchedMessage, 0, len(msgs))
	for _, m := range msgs {
		page = append(page, convertMessage(m))
	}
	return page, nil
}

func convertMessage(m *discordgo.Message) models.FetchedMessage {
	fm := models.FetchedMessage{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		fm.AuthorID = m.Author.ID
		fm.AuthorBot = m.Author.Bot
		fm.AuthorName = m.Author.Username
		if m.Member != nil && m.Member.Nick != "" {
			fm.AuthorName = m.Member.Nick
		} else if m.Author.GlobalName != "" {
			fm.AuthorName = m.Author.GlobalName
		}
	}
	return fm
}
