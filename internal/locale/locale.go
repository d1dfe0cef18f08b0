package locale

import (
	"context"
	"fmt"
	"strings"

	"github.com/discord-summary-bot/internal/models"
)

// Tag is a supported interface language
type Tag string

const (
	English Tag = "en"
	Polish  Tag = "pl"
)

// Default is used when a locale is unknown or unset
const Default = English

// Supported lists every tag the bot ships strings for
var Supported = []Tag{English, Polish}

// Normalize maps a platform locale (en-US, en-GB, pl, ...) onto a supported tag.
// Unknown locales map to Default.
func Normalize(locale string) Tag {
	base := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	for _, tag := range Supported {
		if base == string(tag) {
			return tag
		}
	}
	return Default
}

// IsSupported reports whether locale is exactly one of the supported tags
func IsSupported(locale string) bool {
	for _, tag := range Supported {
		if locale == string(tag) {
			return true
		}
	}
	return false
}

// Name returns the human readable language name for a tag
func Name(tag Tag) string {
	switch tag {
	case Polish:
		return "Polski"
	default:
		return "English"
	}
}

// ConfigStore is the subset of storage the resolver needs
type ConfigStore interface {
	GetUserConfig(ctx context.Context, userID, guildID string) (*models.UserConfig, error)
}

// Resolver picks the effective locale for a user
type Resolver struct {
	store ConfigStore
}

// NewResolver creates a new locale resolver
func NewResolver(store ConfigStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the user's stored locale, or platformLocale when none is set.
// The returned value is not normalized; use For or Normalize at lookup time.
func (r *Resolver) Resolve(ctx context.Context, userID, guildID, platformLocale string) (string, error) {
	cfg, err := r.store.GetUserConfig(ctx, userID, guildID)
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	if cfg.Locale != "" {
		return cfg.Locale, nil
	}
	return platformLocale, nil
}
