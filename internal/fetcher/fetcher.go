package fetcher

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
)

// MaxPageSize is the largest page the platform returns per history request
const MaxPageSize = 100

// RetrievalError reports a failed history request. Messages gathered before
// the failure are discarded.
type RetrievalError struct {
	ChannelID string
	Cause     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve messages from channel %s: %v", e.ChannelID, e.Cause)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// PageSource returns one page of channel history, newest first.
// beforeID is empty for the newest page.
type PageSource interface {
	FetchPage(ctx context.Context, channelID string, limit int, beforeID string) ([]models.FetchedMessage, error)
}

// Fetcher retrieves channel messages by count or time window
type Fetcher struct {
	source   PageSource
	selfID   string
	filter   models.BotMessageFilter
	pageSize int
	logger   zerolog.Logger
}

// NewFetcher creates a new fetcher. selfID is the bot's own user ID.
func NewFetcher(source PageSource, selfID string, filter models.BotMessageFilter, pageSize int, logger zerolog.Logger) *Fetcher {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if filter == "" {
		filter = models.FilterSelf
	}
	return &Fetcher{
		source:   source,
		selfID:   selfID,
		filter:   filter,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "fetcher").Logger(),
	}
}

// FetchLatest returns up to n of the newest messages, oldest first
func (f *Fetcher) FetchLatest(ctx context.Context, channelID string, n int) ([]models.FetchedMessage, error) {
	if n <= 0 {
		return nil, nil
	}

	var collected []models.FetchedMessage
	before := ""
	pages := 0

	for len(collected) < n {
		limit := min(f.pageSize, n-len(collected))
		page, err := f.fetchPage(ctx, channelID, limit, before)
		if err != nil {
			return nil, err
		}
		pages++
		if len(page) == 0 {
			break
		}

		for _, m := range page {
			if f.keep(m) && len(collected) < n {
				collected = append(collected, m)
			}
		}

		if len(page) < limit {
			break
		}
		before = page[len(page)-1].ID
	}

	f.logger.Debug().
		Str("channel_id", channelID).
		Int("requested", n).
		Int("collected", len(collected)).
		Int("pages", pages).
		Msg("Fetched latest messages")

	slices.Reverse(collected)
	return collected, nil
}

// FetchSince returns every message created at or after cutoff, oldest first
func (f *Fetcher) FetchSince(ctx context.Context, channelID string, cutoff time.Time) ([]models.FetchedMessage, error) {
	return f.fetchWindow(ctx, channelID, cutoff, time.Time{})
}

// FetchBetween returns every message created in [start, end], oldest first
func (f *Fetcher) FetchBetween(ctx context.Context, channelID string, start, end time.Time) ([]models.FetchedMessage, error) {
	if start.After(end) {
		return nil, nil
	}
	return f.fetchWindow(ctx, channelID, start, end)
}

// fetchWindow pages backward until a page reaches past start. A zero end is unbounded.
func (f *Fetcher) fetchWindow(ctx context.Context, channelID string, start, end time.Time) ([]models.FetchedMessage, error) {
	var collected []models.FetchedMessage
	before := ""
	pages := 0

	for {
		page, err := f.fetchPage(ctx, channelID, f.pageSize, before)
		if err != nil {
			return nil, err
		}
		pages++
		if len(page) == 0 {
			break
		}

		for _, m := range page {
			if m.CreatedAt.Before(start) {
				continue
			}
			if !end.IsZero() && m.CreatedAt.After(end) {
				continue
			}
			if f.keep(m) {
				collected = append(collected, m)
			}
		}

		oldest := page[len(page)-1]
		if oldest.CreatedAt.Before(start) || len(page) < f.pageSize {
			break
		}
		before = oldest.ID
	}

	f.logger.Debug().
		Str("channel_id", channelID).
		Time("start", start).
		Time("end", end).
		Int("collected", len(collected)).
		Int("pages", pages).
		Msg("Fetched message window")

	slices.Reverse(collected)
	return collected, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, channelID string, limit int, before string) ([]models.FetchedMessage, error) {
	page, err := f.source.FetchPage(ctx, channelID, limit, before)
	if err != nil {
		f.logger.Error().
			Err(err).
			Str("channel_id", channelID).
			Str("before", before).
			Msg("Failed to fetch message page")
		return nil, &RetrievalError{ChannelID: channelID, Cause: err}
	}
	return page, nil
}

// keep applies the bot message policy
func (f *Fetcher) keep(m models.FetchedMessage) bool {
	if m.AuthorID == f.selfID {
		return false
	}
	if f.filter == models.FilterAllBots && m.AuthorBot {
		return false
	}
	return true
}
