package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/discord-summary-bot/internal/locale"
	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu       sync.Mutex
	exempt   bool
	limit    int
	uses     map[string]int
	failRead error
	recorded []string
}

func newFakeLedger(limit int) *fakeLedger {
	return &fakeLedger{limit: limit, uses: make(map[string]int)}
}

func (l *fakeLedger) Today() string { return "2026-10-17" }

func (l *fakeLedger) IsExempt(_ context.Context, _ []string, _ string) (bool, error) {
	return l.exempt, l.failRead
}

func (l *fakeLedger) HasReachedLimit(_ context.Context, userID, _, day string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.uses[userID+day] >= l.limit, nil
}

func (l *fakeLedger) RemainingUses(_ context.Context, userID, _, day string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return max(0, l.limit-l.uses[userID+day]), nil
}

func (l *fakeLedger) RecordUse(_ context.Context, userID, _, day string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uses[userID+day]++
	l.recorded = append(l.recorded, userID+"@"+day)
	return nil
}

type fakeResolver struct {
	loc string
}

func (r fakeResolver) Resolve(_ context.Context, _, _, platform string) (string, error) {
	if r.loc != "" {
		return r.loc, nil
	}
	return platform, nil
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchLatest(_ context.Context, channelID string, n int) ([]models.FetchedMessage, error) {
	args := m.Called(channelID, n)
	msgs, _ := args.Get(0).([]models.FetchedMessage)
	return msgs, args.Error(1)
}

func (m *mockFetcher) FetchSince(_ context.Context, channelID string, cutoff time.Time) ([]models.FetchedMessage, error) {
	args := m.Called(channelID, cutoff)
	msgs, _ := args.Get(0).([]models.FetchedMessage)
	return msgs, args.Error(1)
}

func (m *mockFetcher) FetchBetween(_ context.Context, channelID string, start, end time.Time) ([]models.FetchedMessage, error) {
	args := m.Called(channelID, start, end)
	msgs, _ := args.Get(0).([]models.FetchedMessage)
	return msgs, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateSummary(_ context.Context, messages []models.FetchedMessage, guildID, channelID, loc string) ([]string, error) {
	args := m.Called(len(messages), guildID, channelID, loc)
	chunks, _ := args.Get(0).([]string)
	return chunks, args.Error(1)
}

// fakeSession records what the user would see
type fakeSession struct {
	mu        sync.Mutex
	choice    string // empty waits for ctx
	replies   []string
	updates   []string
	options   []Option
	threadErr error
	postErr   error
	threads   []string
	posts     []string
}

func (s *fakeSession) Reply(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, text)
	return nil
}

func (s *fakeSession) PresentOptions(_ context.Context, _ string, options []Option) error {
	s.options = options
	return nil
}

func (s *fakeSession) AwaitChoice(ctx context.Context) (string, error) {
	if s.choice == "" {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.choice, nil
}

func (s *fakeSession) Update(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, text)
	return nil
}

func (s *fakeSession) StartThread(_ context.Context, name string) (string, string, error) {
	if s.threadErr != nil {
		return "", "", s.threadErr
	}
	s.threads = append(s.threads, name)
	return "t1", "<#t1>", nil
}

func (s *fakeSession) PostToThread(_ context.Context, threadID, text string) error {
	if s.postErr != nil {
		return s.postErr
	}
	s.posts = append(s.posts, text)
	return nil
}

func (s *fakeSession) lastUpdate() string {
	if len(s.updates) == 0 {
		return ""
	}
	return s.updates[len(s.updates)-1]
}

var testNow = time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC)

func testInvocation() Invocation {
	return Invocation{
		ID:             "inv-1",
		UserID:         "u1",
		GuildID:        "111",
		ChannelID:      "222",
		MemberRoleIDs:  []string{"r1"},
		PlatformLocale: "en-US",
	}
}

func someMessages(n int) []models.FetchedMessage {
	msgs := make([]models.FetchedMessage, n)
	for i := range msgs {
		msgs[i] = models.FetchedMessage{ID: "1", Content: "hi", CreatedAt: testNow}
	}
	return msgs
}

type recordingRequestLog struct {
	mu   sync.Mutex
	reqs []models.SummaryRequest
}

func (r *recordingRequestLog) LogSummaryRequest(_ context.Context, req *models.SummaryRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, *req)
	return nil
}

func newTestOrchestrator(ledger UsageLedger, f MessageFetcher, g SummaryGenerator, timeout time.Duration) *Orchestrator {
	o := NewOrchestrator(ledger, fakeResolver{}, f, g, nil, "openrouter", "test-model", 2, timeout, zerolog.Nop())
	o.now = func() time.Time { return testNow }
	return o
}

func TestSummarize_Success(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	f.On("FetchLatest", "222", 50).Return(someMessages(3), nil).Once()
	g := &mockGenerator{}
	g.On("GenerateSummary", 3, "111", "222", "en-US").Return([]string{"- first", "- second"}, nil).Once()

	sess := &fakeSession{choice: OptionLast50}
	state := newTestOrchestrator(ledger, f, g, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateCompleted, state)
	assert.Len(t, sess.options, 9)
	assert.Equal(t, []string{"- first", "- second"}, sess.posts)
	assert.Equal(t, []string{"Summary 2026-10-17 15:04"}, sess.threads)
	assert.Equal(t, []string{
		locale.For("en").GeneratingSummary,
		locale.For("en").SummaryCreated("<#t1>"),
	}, sess.updates)
	assert.Equal(t, []string{"u1@2026-10-17"}, ledger.recorded)
	f.AssertExpectations(t)
	g.AssertExpectations(t)
}

func TestSummarize_EmptyChannelSkipsCompletion(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	f.On("FetchLatest", "222", 10).Return([]models.FetchedMessage{}, nil)
	g := &mockGenerator{}

	sess := &fakeSession{choice: OptionLast10}
	state := newTestOrchestrator(ledger, f, g, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateCompleted, state)
	assert.Equal(t, locale.For("en").NoMessages, sess.lastUpdate())
	g.AssertNotCalled(t, "GenerateSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, sess.threads)
	assert.Empty(t, ledger.recorded)
}

func TestSummarize_OverQuota(t *testing.T) {
	ledger := newFakeLedger(3)
	ledger.uses["u12026-10-17"] = 3
	f := &mockFetcher{}
	g := &mockGenerator{}

	sess := &fakeSession{choice: OptionLast10}
	state := newTestOrchestrator(ledger, f, g, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateIdle, state)
	assert.Equal(t, []string{locale.For("en").UsageLimitReached(0)}, sess.replies)
	assert.Nil(t, sess.options)
	assert.Empty(t, ledger.recorded)
	f.AssertNotCalled(t, "FetchLatest", mock.Anything, mock.Anything)
}

func TestSummarize_ExemptBypassesQuota(t *testing.T) {
	ledger := newFakeLedger(3)
	ledger.exempt = true
	ledger.uses["u12026-10-17"] = 7
	f := &mockFetcher{}
	f.On("FetchLatest", "222", 10).Return(someMessages(2), nil)
	g := &mockGenerator{}
	g.On("GenerateSummary", 2, "111", "222", "en-US").Return([]string{"- ok"}, nil)

	sess := &fakeSession{choice: OptionLast10}
	state := newTestOrchestrator(ledger, f, g, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateCompleted, state)
	assert.Empty(t, ledger.recorded, "exempt members do not consume slots")
}

func TestSummarize_ChoiceTimeoutIsSilent(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	g := &mockGenerator{}

	sess := &fakeSession{}
	state := newTestOrchestrator(ledger, f, g, 20*time.Millisecond).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateExpired, state)
	assert.Empty(t, sess.updates)
	assert.Empty(t, sess.replies)
	assert.Empty(t, ledger.recorded)
}

func TestSummarize_ThreadFailure(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	f.On("FetchLatest", "222", 10).Return(someMessages(1), nil)
	g := &mockGenerator{}
	g.On("GenerateSummary", 1, "111", "222", "en-US").Return([]string{"- a"}, nil)

	sess := &fakeSession{choice: OptionLast10, threadErr: errors.New("missing permissions")}
	state := newTestOrchestrator(ledger, f, g, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, locale.For("en").ErrorThread, sess.lastUpdate())
	assert.Empty(t, sess.posts)
	assert.Empty(t, ledger.recorded)
}

func TestSummarize_FetchFailureNeverLeavesGenerating(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	f.On("FetchSince", "222", mock.Anything).Return(nil, errors.New("rate limited"))
	g := &mockGenerator{}

	sess := &fakeSession{choice: OptionToday}
	state := newTestOrchestrator(ledger, f, g, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, locale.For("en").ErrorGenerating, sess.lastUpdate())
	assert.NotEqual(t, locale.For("en").GeneratingSummary, sess.lastUpdate())
}

func TestSummarize_CompletionFailure(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	f.On("FetchLatest", "222", 30).Return(someMessages(5), nil)
	g := &mockGenerator{}
	g.On("GenerateSummary", 5, "111", "222", "pl").Return(nil, errors.New("completion failed"))

	o := newTestOrchestrator(ledger, f, g, time.Second)
	o.resolver = fakeResolver{loc: "pl"}

	sess := &fakeSession{choice: OptionLast30}
	state := o.Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, locale.For("pl").ErrorGenerating, sess.lastUpdate())
	assert.True(t, strings.HasPrefix(sess.options[0].Label, "Ostatnie"))
}

func TestSummarize_YesterdayIsPreviousUTCDay(t *testing.T) {
	ledger := newFakeLedger(10)
	f := &mockFetcher{}
	start := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	f.On("FetchBetween", "222", start, end).Return([]models.FetchedMessage{}, nil).Once()

	sess := &fakeSession{choice: OptionYesterday}
	state := newTestOrchestrator(ledger, f, &mockGenerator{}, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateCompleted, state)
	f.AssertExpectations(t)
}

func TestSummarize_LedgerFailure(t *testing.T) {
	ledger := newFakeLedger(10)
	ledger.failRead = errors.New("db down")

	sess := &fakeSession{choice: OptionLast10}
	state := newTestOrchestrator(ledger, &mockFetcher{}, &mockGenerator{}, time.Second).Summarize(context.Background(), testInvocation(), sess)

	assert.Equal(t, StateFailed, state)
	require.Len(t, sess.replies, 1)
	assert.Equal(t, locale.For("en").ErrorGeneric, sess.replies[0])
}

func TestResolveWindow(t *testing.T) {
	w, ok := resolveWindow(OptionToday, testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), w.start)
	assert.True(t, w.end.IsZero())

	w, ok = resolveWindow(OptionLastWeek, testNow)
	require.True(t, ok)
	assert.Equal(t, testNow.Add(-7*24*time.Hour), w.start)

	w, ok = resolveWindow(OptionLast200, testNow)
	require.True(t, ok)
	assert.Equal(t, 200, w.count)

	_, ok = resolveWindow("last1000", testNow)
	assert.False(t, ok)
}

func TestSummarize_RecordsEachRun(t *testing.T) {
	requests := &recordingRequestLog{}

	f := &mockFetcher{}
	f.On("FetchLatest", "222", 50).Return(someMessages(3), nil).Once()
	f.On("FetchLatest", "222", 10).Return(nil, errors.New("missing access")).Once()
	g := &mockGenerator{}
	g.On("GenerateSummary", 3, "111", "222", "en-US").Return([]string{"- a", "- b"}, nil)

	o := newTestOrchestrator(newFakeLedger(10), f, g, time.Second)
	o.requests = requests

	assert.Equal(t, StateCompleted, o.Summarize(context.Background(), testInvocation(), &fakeSession{choice: OptionLast50}))
	assert.Equal(t, StateFailed, o.Summarize(context.Background(), testInvocation(), &fakeSession{choice: OptionLast10}))
	// An expired choice never reaches processing and is not recorded
	o.choiceTimeout = 10 * time.Millisecond
	assert.Equal(t, StateExpired, o.Summarize(context.Background(), testInvocation(), &fakeSession{}))

	require.Len(t, requests.reqs, 2)

	ok := requests.reqs[0]
	assert.Equal(t, "inv-1", ok.InvocationID)
	assert.Equal(t, OptionLast50, ok.Option)
	assert.Equal(t, "en", ok.Locale)
	assert.Equal(t, 3, ok.MessageCount)
	assert.Equal(t, 2, ok.ChunkCount)
	assert.Equal(t, "openrouter", ok.Provider)
	assert.Equal(t, "test-model", ok.Model)
	assert.Equal(t, "completed", ok.Outcome)
	assert.Empty(t, ok.ErrorMessage)

	failed := requests.reqs[1]
	assert.Equal(t, "failed", failed.Outcome)
	assert.Contains(t, failed.ErrorMessage, "missing access")
	assert.Zero(t, failed.ChunkCount)
}
