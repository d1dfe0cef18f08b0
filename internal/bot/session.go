package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

const (
	summarizeComponentPrefix = "summarize"
	buttonsPerRow            = 5
	threadArchiveMinutes     = 1440
)

// componentID builds the custom ID of a summary option button
func componentID(key, option string) string {
	return summarizeComponentPrefix + ":" + key + ":" + option
}

// parseComponentID splits a custom ID built by componentID
func parseComponentID(customID string) (key, option string, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != summarizeComponentPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// pendingChoice is an invocation waiting for its user to press a button
type pendingChoice struct {
	userID string
	ch     chan string
}

// choiceRegistry routes button presses to the invocation that showed them
type choiceRegistry struct {
	mu      sync.Mutex
	pending map[string]pendingChoice
}

func newChoiceRegistry() *choiceRegistry {
	return &choiceRegistry{pending: make(map[string]pendingChoice)}
}

func (r *choiceRegistry) register(key, userID string) <-chan string {
	ch := make(chan string, 1)
	r.mu.Lock()
	r.pending[key] = pendingChoice{userID: userID, ch: ch}
	r.mu.Unlock()
	return ch
}

// deliver hands option to the waiting invocation. Only the first press by the
// invoking user counts.
func (r *choiceRegistry) deliver(key, userID, option string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[key]
	if !ok || p.userID != userID {
		return false
	}
	delete(r.pending, key)
	p.ch <- option
	return true
}

func (r *choiceRegistry) remove(key string) {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
}

func (r *choiceRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// interactionSession implements Session over a deferred ephemeral interaction response
type interactionSession struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	key         string
	userID      string
	channelID   string
	choices     *choiceRegistry
	choice      <-chan string
}

func (s *interactionSession) edit(ctx context.Context, text string, components []discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := s.session.InteractionResponseEdit(s.interaction, &discordgo.WebhookEdit{
		Content:    &text,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit interaction response: %w", err)
	}
	return nil
}

// Reply implements Session
func (s *interactionSession) Reply(ctx context.Context, text string) error {
	return s.edit(ctx, text, nil)
}

// PresentOptions implements Session
func (s *interactionSession) PresentOptions(ctx context.Context, text string, options []Option) error {
	s.choice = s.choices.register(s.key, s.userID)
	if err := s.edit(ctx, text, optionRows(s.key, options)); err != nil {
		s.choices.remove(s.key)
		return err
	}
	return nil
}

// AwaitChoice implements Session
func (s *interactionSession) AwaitChoice(ctx context.Context) (string, error) {
	defer s.choices.remove(s.key)

	if s.choice == nil {
		return "", fmt.Errorf("no options presented")
	}
	select {
	case option := <-s.choice:
		return option, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", errChoiceExpired, ctx.Err())
	}
}

// Update implements Session
func (s *interactionSession) Update(ctx context.Context, text string) error {
	return s.edit(ctx, text, nil)
}

// StartThread implements Session
func (s *interactionSession) StartThread(ctx context.Context, name string) (string, string, error) {
	thread, err := s.session.ThreadStart(s.channelID, name, discordgo.ChannelTypeGuildPublicThread, threadArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("failed to start thread: %w", err)
	}
	return thread.ID, thread.Mention(), nil
}

// PostToThread implements Session
func (s *interactionSession) PostToThread(ctx context.Context, threadID, text string) error {
	if _, err := s.session.ChannelMessageSend(threadID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post to thread: %w", err)
	}
	return nil
}

// optionRows lays out option buttons five per row
func optionRows(key string, options []Option) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var current []discordgo.MessageComponent

	for _, opt := range options {
		current = append(current, discordgo.Button{
			Label:    opt.Label,
			Style:    discordgo.PrimaryButton,
			CustomID: componentID(key, opt.Key),
		})
		if len(current) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: current})
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: current})
	}
	return rows
}
