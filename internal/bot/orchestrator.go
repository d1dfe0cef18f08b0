package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/discord-summary-bot/internal/locale"
	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// State is the lifecycle position of one summarize invocation
type State int

const (
	StateIdle State = iota
	StateOptionsPresented
	StateProcessing
	StateCompleted
	StateFailed
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOptionsPresented:
		return "options_presented"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Invocation identifies who asked for a summary and where
type Invocation struct {
	ID             string
	UserID         string
	GuildID        string
	ChannelID      string
	MemberRoleIDs  []string
	PlatformLocale string
}

// Session is the user-facing side of one invocation
type Session interface {
	// Reply sends a final message when no options were shown
	Reply(ctx context.Context, text string) error
	// PresentOptions shows the choice buttons
	PresentOptions(ctx context.Context, text string, options []Option) error
	// AwaitChoice blocks until the user picks an option or ctx is done
	AwaitChoice(ctx context.Context) (string, error)
	// Update replaces the text of the response and removes the buttons
	Update(ctx context.Context, text string) error
	// StartThread creates a discussion thread and returns its ID and mention
	StartThread(ctx context.Context, name string) (threadID, mention string, err error)
	PostToThread(ctx context.Context, threadID, text string) error
}

// UsageLedger is the quota state the orchestrator consults
type UsageLedger interface {
	Today() string
	IsExempt(ctx context.Context, memberRoleIDs []string, guildID string) (bool, error)
	HasReachedLimit(ctx context.Context, userID, guildID, day string) (bool, error)
	RemainingUses(ctx context.Context, userID, guildID, day string) (int, error)
	RecordUse(ctx context.Context, userID, guildID, day string) error
}

// LocaleResolver picks the effective locale of a user
type LocaleResolver interface {
	Resolve(ctx context.Context, userID, guildID, platformLocale string) (string, error)
}

// MessageFetcher retrieves channel history, oldest first
type MessageFetcher interface {
	FetchLatest(ctx context.Context, channelID string, n int) ([]models.FetchedMessage, error)
	FetchSince(ctx context.Context, channelID string, cutoff time.Time) ([]models.FetchedMessage, error)
	FetchBetween(ctx context.Context, channelID string, start, end time.Time) ([]models.FetchedMessage, error)
}

// SummaryGenerator turns messages into postable chunks
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, messages []models.FetchedMessage, guildID, channelID, loc string) ([]string, error)
}

// RequestLog persists one record per summarize run
type RequestLog interface {
	LogSummaryRequest(ctx context.Context, req *models.SummaryRequest) error
}

// Orchestrator sequences quota check, option choice, fetch, summary and posting
type Orchestrator struct {
	ledger        UsageLedger
	resolver      LocaleResolver
	fetcher       MessageFetcher
	generator     SummaryGenerator
	requests      RequestLog // optional
	provider      string
	model         string
	slots         *semaphore.Weighted
	choiceTimeout time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

// NewOrchestrator creates a new orchestrator. maxConcurrent bounds how many
// invocations may be fetching and summarizing at once. requests may be nil;
// provider and model are only recorded in the request log.
func NewOrchestrator(
	ledger UsageLedger,
	resolver LocaleResolver,
	fetcher MessageFetcher,
	generator SummaryGenerator,
	requests RequestLog,
	provider, model string,
	maxConcurrent int,
	choiceTimeout time.Duration,
	logger zerolog.Logger,
) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		ledger:        ledger,
		resolver:      resolver,
		fetcher:       fetcher,
		generator:     generator,
		requests:      requests,
		provider:      provider,
		model:         model,
		slots:         semaphore.NewWeighted(int64(maxConcurrent)),
		choiceTimeout: choiceTimeout,
		now:           time.Now,
		logger:        logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Summarize runs one invocation to a terminal state
func (o *Orchestrator) Summarize(ctx context.Context, inv Invocation, sess Session) (state State) {
	log := o.logger.With().
		Str("invocation_id", inv.ID).
		Str("user_id", inv.UserID).
		Str("guild_id", inv.GuildID).
		Str("channel_id", inv.ChannelID).
		Logger()

	loc, err := o.resolver.Resolve(ctx, inv.UserID, inv.GuildID, inv.PlatformLocale)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to resolve locale, using platform locale")
		loc = inv.PlatformLocale
	}
	text := locale.For(loc)
	day := o.ledger.Today()

	exempt, err := o.ledger.IsExempt(ctx, inv.MemberRoleIDs, inv.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check exemption")
		o.reply(ctx, log, sess, text.ErrorGeneric)
		return StateFailed
	}

	if !exempt {
		reached, err := o.ledger.HasReachedLimit(ctx, inv.UserID, inv.GuildID, day)
		if err != nil {
			log.Error().Err(err).Msg("Failed to check usage limit")
			o.reply(ctx, log, sess, text.ErrorGeneric)
			return StateFailed
		}
		if reached {
			remaining, err := o.ledger.RemainingUses(ctx, inv.UserID, inv.GuildID, day)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to get remaining uses")
				remaining = 0
			}
			log.Info().Int("remaining", remaining).Msg("Usage limit reached")
			o.reply(ctx, log, sess, text.UsageLimitReached(remaining))
			return StateIdle
		}
	}

	if err := sess.PresentOptions(ctx, text.ChooseMessages, summaryOptions(text)); err != nil {
		log.Error().Err(err).Msg("Failed to present options")
		o.reply(ctx, log, sess, text.ErrorButtons)
		return StateFailed
	}
	log.Debug().Stringer("state", StateOptionsPresented).Msg("Awaiting choice")

	choiceCtx, cancel := context.WithTimeout(ctx, o.choiceTimeout)
	choice, err := sess.AwaitChoice(choiceCtx)
	cancel()
	if err != nil {
		// The interaction token is gone; nothing more can be shown
		log.Info().Err(err).Msg("Option choice expired")
		return StateExpired
	}

	w, ok := resolveWindow(choice, o.now())
	if !ok {
		log.Error().Str("choice", choice).Msg("Unknown option chosen")
		o.update(ctx, log, sess, text.ErrorGenerating)
		return StateFailed
	}

	log.Info().Str("choice", choice).Msg("Option chosen")

	rec := &models.SummaryRequest{
		InvocationID: inv.ID,
		UserID:       inv.UserID,
		GuildID:      inv.GuildID,
		ChannelID:    inv.ChannelID,
		Option:       choice,
		Locale:       string(locale.Normalize(loc)),
		Provider:     o.provider,
		Model:        o.model,
	}
	started := o.now()
	defer func() {
		o.logRequest(ctx, log, rec, started, state)
	}()

	o.update(ctx, log, sess, text.GeneratingSummary)

	if err := o.slots.Acquire(ctx, 1); err != nil {
		log.Warn().Err(err).Msg("Gave up waiting for a summary slot")
		rec.ErrorMessage = err.Error()
		o.update(ctx, log, sess, text.ErrorGenerating)
		return StateFailed
	}
	defer o.slots.Release(1)

	log.Debug().Stringer("state", StateProcessing).Msg("Processing")

	messages, err := o.fetch(ctx, inv.ChannelID, w)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch messages")
		rec.ErrorMessage = err.Error()
		o.update(ctx, log, sess, text.ErrorGenerating)
		return StateFailed
	}
	rec.MessageCount = len(messages)
	if len(messages) == 0 {
		log.Info().Msg("No messages in selected window")
		o.update(ctx, log, sess, text.NoMessages)
		return StateCompleted
	}

	chunks, err := o.generator.GenerateSummary(ctx, messages, inv.GuildID, inv.ChannelID, loc)
	if err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to generate summary")
		rec.ErrorMessage = err.Error()
		o.update(ctx, log, sess, text.ErrorGenerating)
		return StateFailed
	}
	if len(chunks) == 0 {
		log.Error().Msg("Summary came back empty")
		rec.ErrorMessage = "empty summary"
		o.update(ctx, log, sess, text.ErrorGenerating)
		return StateFailed
	}

	threadID, mention, err := sess.StartThread(ctx, text.ThreadName(o.now().UTC().Format("2006-01-02 15:04")))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create thread")
		rec.ErrorMessage = err.Error()
		o.update(ctx, log, sess, text.ErrorThread)
		return StateFailed
	}

	for i, chunk := range chunks {
		if err := sess.PostToThread(ctx, threadID, chunk); err != nil {
			log.Error().
				Err(err).
				Str("thread_id", threadID).
				Int("chunk", i).
				Int("chunk_count", len(chunks)).
				Msg("Failed to post summary chunk")
			rec.ErrorMessage = err.Error()
			o.update(ctx, log, sess, text.ErrorGenerating)
			return StateFailed
		}
	}

	rec.ChunkCount = len(chunks)

	if !exempt {
		if err := o.ledger.RecordUse(ctx, inv.UserID, inv.GuildID, day); err != nil {
			// The summary is already posted; keep going
			log.Error().Err(err).Msg("Failed to record usage")
		}
	}

	o.update(ctx, log, sess, text.SummaryCreated(mention))

	log.Info().
		Str("thread_id", threadID).
		Int("message_count", len(messages)).
		Int("chunk_count", len(chunks)).
		Bool("exempt", exempt).
		Msg("Summary posted")

	return StateCompleted
}

func (o *Orchestrator) fetch(ctx context.Context, channelID string, w window) ([]models.FetchedMessage, error) {
	switch {
	case w.count > 0:
		return o.fetcher.FetchLatest(ctx, channelID, w.count)
	case w.end.IsZero():
		return o.fetcher.FetchSince(ctx, channelID, w.start)
	default:
		return o.fetcher.FetchBetween(ctx, channelID, w.start, w.end)
	}
}

// logRequest writes the run record. Failures are logged only.
func (o *Orchestrator) logRequest(ctx context.Context, log zerolog.Logger, rec *models.SummaryRequest, started time.Time, state State) {
	if o.requests == nil {
		return
	}
	rec.Outcome = state.String()
	rec.DurationMs = o.now().Sub(started).Milliseconds()
	if err := o.requests.LogSummaryRequest(ctx, rec); err != nil {
		log.Error().Err(err).Msg("Failed to log summary request")
	}
}

func (o *Orchestrator) reply(ctx context.Context, log zerolog.Logger, sess Session, text string) {
	if err := sess.Reply(ctx, text); err != nil {
		log.Error().Err(err).Msg("Failed to send reply")
	}
}

func (o *Orchestrator) update(ctx context.Context, log zerolog.Logger, sess Session, text string) {
	if err := sess.Update(ctx, text); err != nil {
		log.Error().Err(err).Msg("Failed to update response")
	}
}

// errChoiceExpired is returned by sessions whose option buttons timed out
var errChoiceExpired = errors.New("option choice expired")
