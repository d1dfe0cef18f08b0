package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selfID = "999"

var epoch = time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

// fakeChannel stores history oldest first and serves it newest first
type fakeChannel struct {
	history []models.FetchedMessage
	calls   int
	limits  []int
	failAt  int // 1-based call number that fails, 0 never
}

// newFakeChannel creates n messages one minute apart; every 7th is the bot's
// own and every 11th comes from another bot.
func newFakeChannel(n int) *fakeChannel {
	c := &fakeChannel{}
	for i := 0; i < n; i++ {
		m := models.FetchedMessage{
			ID:         strconv.Itoa(1000 + i),
			AuthorID:   "u" + strconv.Itoa(i%3),
			AuthorName: "user",
			Content:    fmt.Sprintf("message %d", i),
			CreatedAt:  epoch.Add(time.Duration(i) * time.Minute),
		}
		switch {
		case i%7 == 0:
			m.AuthorID = selfID
			m.AuthorBot = true
		case i%11 == 0:
			m.AuthorID = "other-bot"
			m.AuthorBot = true
		}
		c.history = append(c.history, m)
	}
	return c
}

func (c *fakeChannel) FetchPage(_ context.Context, _ string, limit int, beforeID string) ([]models.FetchedMessage, error) {
	c.calls++
	c.limits = append(c.limits, limit)
	if c.failAt == c.calls {
		return nil, errors.New("missing access")
	}
	if limit > MaxPageSize {
		return nil, errors.New("limit too large")
	}

	end := len(c.history)
	if beforeID != "" {
		before, _ := strconv.Atoi(beforeID)
		end = before - 1000
	}

	var page []models.FetchedMessage
	for i := end - 1; i >= 0 && len(page) < limit; i-- {
		page = append(page, c.history[i])
	}
	return page, nil
}

// expected returns the messages kept by the self filter matching keep, oldest first
func (c *fakeChannel) expected(keep func(models.FetchedMessage) bool) []models.FetchedMessage {
	var out []models.FetchedMessage
	for _, m := range c.history {
		if m.AuthorID != selfID && keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func assertChronological(t *testing.T, msgs []models.FetchedMessage) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt), "messages %d and %d out of order", i-1, i)
	}
}

var pageSizes = []int{1, 37, 100}

func TestFetchLatest(t *testing.T) {
	ctx := context.Background()

	for _, size := range pageSizes {
		for _, n := range []int{1, 10, 50, 200, 500} {
			t.Run(fmt.Sprintf("page%d_n%d", size, n), func(t *testing.T) {
				ch := newFakeChannel(250)
				f := NewFetcher(ch, selfID, models.FilterSelf, size, zerolog.Nop())

				got, err := f.FetchLatest(ctx, "c1", n)
				require.NoError(t, err)

				all := ch.expected(func(models.FetchedMessage) bool { return true })
				want := all[max(0, len(all)-n):]
				assert.Equal(t, want, got)
				assertChronological(t, got)
				for _, l := range ch.limits {
					assert.LessOrEqual(t, l, size)
				}
			})
		}
	}
}

func TestFetchLatest_EmptyChannel(t *testing.T) {
	ch := newFakeChannel(0)
	f := NewFetcher(ch, selfID, models.FilterSelf, 100, zerolog.Nop())

	got, err := f.FetchLatest(context.Background(), "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, ch.calls)
}

func TestFetchSince(t *testing.T) {
	ctx := context.Background()
	cutoffs := []time.Time{
		epoch.Add(-time.Hour),
		epoch,
		epoch.Add(90*time.Minute + 30*time.Second),
		epoch.Add(200 * time.Minute),
		epoch.Add(time.Hour * 24),
	}

	for _, size := range pageSizes {
		for _, cutoff := range cutoffs {
			t.Run(fmt.Sprintf("page%d_%s", size, cutoff.Format("1504")), func(t *testing.T) {
				ch := newFakeChannel(250)
				f := NewFetcher(ch, selfID, models.FilterSelf, size, zerolog.Nop())

				got, err := f.FetchSince(ctx, "c1", cutoff)
				require.NoError(t, err)

				want := ch.expected(func(m models.FetchedMessage) bool { return !m.CreatedAt.Before(cutoff) })
				assert.Equal(t, want, got)
				assertChronological(t, got)
			})
		}
	}
}

func TestFetchSince_StopsAtCutoff(t *testing.T) {
	ch := newFakeChannel(1000)
	f := NewFetcher(ch, selfID, models.FilterSelf, 100, zerolog.Nop())

	// The newest 150 messages are after the cutoff; two pages cover them.
	_, err := f.FetchSince(context.Background(), "c1", epoch.Add(850*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, ch.calls)
}

func TestFetchBetween(t *testing.T) {
	ctx := context.Background()
	start := epoch.Add(40 * time.Minute)
	end := epoch.Add(120 * time.Minute)

	for _, size := range pageSizes {
		t.Run(fmt.Sprintf("page%d", size), func(t *testing.T) {
			ch := newFakeChannel(250)
			f := NewFetcher(ch, selfID, models.FilterSelf, size, zerolog.Nop())

			got, err := f.FetchBetween(ctx, "c1", start, end)
			require.NoError(t, err)

			since, err := NewFetcher(newFakeChannel(250), selfID, models.FilterSelf, size, zerolog.Nop()).FetchSince(ctx, "c1", start)
			require.NoError(t, err)

			var want []models.FetchedMessage
			for _, m := range since {
				if !m.CreatedAt.After(end) {
					want = append(want, m)
				}
			}
			assert.Equal(t, want, got)
			assert.Equal(t, start, got[0].CreatedAt)
			assert.Equal(t, end, got[len(got)-1].CreatedAt)
		})
	}
}

func TestFetchBetween_StartAfterEnd(t *testing.T) {
	ch := newFakeChannel(10)
	f := NewFetcher(ch, selfID, models.FilterSelf, 100, zerolog.Nop())

	got, err := f.FetchBetween(context.Background(), "c1", epoch.Add(time.Hour), epoch)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, ch.calls)
}

func TestFilterAllBots(t *testing.T) {
	ch := newFakeChannel(100)
	f := NewFetcher(ch, selfID, models.FilterAllBots, 100, zerolog.Nop())

	got, err := f.FetchLatest(context.Background(), "c1", 100)
	require.NoError(t, err)

	want := ch.expected(func(m models.FetchedMessage) bool { return !m.AuthorBot })
	assert.Equal(t, want, got)
	for _, m := range got {
		assert.False(t, m.AuthorBot)
	}
}

func TestFilterSelfKeepsOtherBots(t *testing.T) {
	ch := newFakeChannel(100)
	f := NewFetcher(ch, selfID, models.FilterSelf, 100, zerolog.Nop())

	got, err := f.FetchLatest(context.Background(), "c1", 100)
	require.NoError(t, err)

	var otherBots int
	for _, m := range got {
		assert.NotEqual(t, selfID, m.AuthorID)
		if m.AuthorBot {
			otherBots++
		}
	}
	assert.Positive(t, otherBots)
}

func TestRetrievalErrorDiscardsPrefix(t *testing.T) {
	ch := newFakeChannel(300)
	ch.failAt = 2
	f := NewFetcher(ch, selfID, models.FilterSelf, 100, zerolog.Nop())

	got, err := f.FetchLatest(context.Background(), "c1", 250)
	assert.Nil(t, got)

	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "c1", rerr.ChannelID)
	assert.EqualError(t, rerr.Cause, "missing access")

	ch = newFakeChannel(300)
	ch.failAt = 1
	f = NewFetcher(ch, selfID, models.FilterSelf, 100, zerolog.Nop())
	_, err = f.FetchSince(context.Background(), "c1", epoch)
	assert.ErrorAs(t, err, &rerr)
}
