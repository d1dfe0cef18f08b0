package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
)

// ValidationError reports a missing or malformed identifier
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("missing %s", e.Field)
	}
	return fmt.Sprintf("malformed %s: %q", e.Field, e.Value)
}

// Completer returns model output for a system and user prompt
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator turns fetched messages into postable summary chunks
type Generator struct {
	completer      Completer
	linkBase       string
	maxChunkLength int
	logger         zerolog.Logger
}

// NewGenerator creates a new summary generator. linkBase is the prefix of
// message deep links, e.g. https://discord.com/channels.
func NewGenerator(completer Completer, linkBase string, maxChunkLength int, logger zerolog.Logger) *Generator {
	return &Generator{
		completer:      completer,
		linkBase:       strings.TrimRight(linkBase, "/"),
		maxChunkLength: maxChunkLength,
		logger:         logger.With().Str("component", "summary_generator").Logger(),
	}
}

// GenerateSummary builds the prompt, requests a completion and chunks the result
func (g *Generator) GenerateSummary(ctx context.Context, messages []models.FetchedMessage, guildID, channelID, loc string) ([]string, error) {
	prompt, err := g.BuildPrompt(messages, loc, guildID, channelID)
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Str("guild_id", guildID).
		Str("channel_id", channelID).
		Str("locale", loc).
		Int("message_count", len(messages)).
		Msg("Starting summary generation")

	raw, err := g.completer.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	chunks := NormalizeAndChunk(raw, g.maxChunkLength)

	g.logger.Info().
		Str("guild_id", guildID).
		Str("channel_id", channelID).
		Int("response_length", len([]rune(raw))).
		Int("chunk_count", len(chunks)).
		Msg("Summary generation completed")

	return chunks, nil
}

// BuildPrompt constructs the system and user prompts for a conversation.
// messages must be oldest first.
func (g *Generator) BuildPrompt(messages []models.FetchedMessage, loc, guildID, channelID string) (models.Prompt, error) {
	if err := validateSnowflake("guild ID", guildID); err != nil {
		return models.Prompt{}, err
	}
	if err := validateSnowflake("channel ID", channelID); err != nil {
		return models.Prompt{}, err
	}

	linkTemplate := fmt.Sprintf("%s/%s/%s/{message_id}", g.linkBase, guildID, channelID)

	var sb strings.Builder
	sb.WriteString(userPromptHeader)
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		// Format: [HH:MM:SS] Author: content (id: 123)
		author := msg.AuthorName
		if author == "" {
			author = "User" + msg.AuthorID
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s (id: %s)",
			msg.CreatedAt.UTC().Format(time.TimeOnly), author, msg.Content, msg.ID))
	}

	return models.Prompt{
		System: systemPrompt(loc, linkTemplate),
		User:   sb.String(),
	}, nil
}

// validateSnowflake checks that id is a non-empty decimal platform ID
func validateSnowflake(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field}
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return &ValidationError{Field: field, Value: id}
		}
	}
	return nil
}
