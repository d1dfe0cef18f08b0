package bot

import (
	"time"

	"github.com/discord-summary-bot/internal/locale"
)

// Option is one button offered to the user
type Option struct {
	Key   string
	Label string
}

// window describes what a chosen option fetches
type window struct {
	count int       // last N messages when > 0
	start time.Time // otherwise messages since start
	end   time.Time // zero means up to now
}

// Option keys
const (
	OptionLast10    = "last10"
	OptionLast30    = "last30"
	OptionLast50    = "last50"
	OptionLast100   = "last100"
	OptionLast200   = "last200"
	OptionToday     = "today"
	OptionYesterday = "yesterday"
	OptionLast3Days = "last3days"
	OptionLastWeek  = "lastweek"
)

// summaryOptions returns the options in display order with localized labels
func summaryOptions(s *locale.Strings) []Option {
	return []Option{
		{Key: OptionLast10, Label: s.Last10},
		{Key: OptionLast30, Label: s.Last30},
		{Key: OptionLast50, Label: s.Last50},
		{Key: OptionLast100, Label: s.Last100},
		{Key: OptionLast200, Label: s.Last200},
		{Key: OptionToday, Label: s.Today},
		{Key: OptionYesterday, Label: s.Yesterday},
		{Key: OptionLast3Days, Label: s.Last3Days},
		{Key: OptionLastWeek, Label: s.LastWeek},
	}
}

// resolveWindow maps an option key to a fetch window. Day boundaries are UTC.
func resolveWindow(key string, now time.Time) (window, bool) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch key {
	case OptionLast10:
		return window{count: 10}, true
	case OptionLast30:
		return window{count: 30}, true
	case OptionLast50:
		return window{count: 50}, true
	case OptionLast100:
		return window{count: 100}, true
	case OptionLast200:
		return window{count: 200}, true
	case OptionToday:
		return window{start: midnight}, true
	case OptionYesterday:
		return window{start: midnight.AddDate(0, 0, -1), end: midnight.Add(-time.Nanosecond)}, true
	case OptionLast3Days:
		return window{start: now.Add(-3 * 24 * time.Hour)}, true
	case OptionLastWeek:
		return window{start: now.Add(-7 * 24 * time.Hour)}, true
	default:
		return window{}, false
	}
}
