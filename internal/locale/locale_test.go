package locale

import (
	"context"
	"errors"
	"testing"

	"github.com/discord-summary-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Tag
	}{
		{"en", English},
		{"en-US", English},
		{"en-GB", English},
		{"pl", Polish},
		{"PL", Polish},
		{"pl_PL", Polish},
		{"de", English},
		{"", English},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestFor_FallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Wczoraj", For("pl").Yesterday)
	assert.Equal(t, "Yesterday", For("fr").Yesterday)
	assert.Equal(t, "Summary has been created in thread: #t", For("en-US").SummaryCreated("#t"))
	assert.Contains(t, For("pl").UsageLimitReached(0), "Pozostało Ci 0 użyć.")
	assert.Equal(t, "Your current configuration:\nLanguage: English", For("en").ConfigCurrent("English"))
}

func TestTablesComplete(t *testing.T) {
	for _, tag := range Supported {
		s := tables[tag]
		require.NotNil(t, s, tag)
		for name, v := range map[string]string{
			"ChooseMessages": s.ChooseMessages, "GeneratingSummary": s.GeneratingSummary,
			"NoMessages": s.NoMessages, "ErrorGenerating": s.ErrorGenerating,
			"Last10": s.Last10, "Last200": s.Last200, "Today": s.Today, "LastWeek": s.LastWeek,
			"Cooldown": s.Cooldown, "threadName": s.threadName,
			"InvalidLimit": s.InvalidLimit, "InvalidRole": s.InvalidRole, "exemptRoles": s.exemptRoles,
		} {
			assert.NotEmpty(t, v, "%s.%s", tag, name)
		}
	}
}

type fakeStore struct {
	cfg *models.UserConfig
	err error
}

func (f *fakeStore) GetUserConfig(_ context.Context, userID, guildID string) (*models.UserConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	got, err := NewResolver(&fakeStore{cfg: &models.UserConfig{}}).Resolve(ctx, "u", "g", "en-GB")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", got)

	got, err = NewResolver(&fakeStore{cfg: &models.UserConfig{Locale: "pl"}}).Resolve(ctx, "u", "g", "en-GB")
	require.NoError(t, err)
	assert.Equal(t, "pl", got)

	boom := errors.New("db down")
	_, err = NewResolver(&fakeStore{err: boom}).Resolve(ctx, "u", "g", "en-GB")
	assert.ErrorIs(t, err, boom)
}
