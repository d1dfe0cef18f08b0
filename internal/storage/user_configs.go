package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/discord-summary-bot/internal/models"
)

// GetUserConfig returns the user's configuration in a guild, creating a default row on first read
func (s *Store) GetUserConfig(ctx context.Context, userID, guildID string) (*models.UserConfig, error) {
	now := s.timestamp()
	if err := s.withRetry(ctx, "create_user_config", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO user_configs (user_id, guild_id, locale, created_at, updated_at)
			VALUES (?, ?, NULL, ?, ?)`,
			userID, guildID, now, now,
		)
		return err
	}); err != nil {
		return nil, err
	}

	cfg := &models.UserConfig{UserID: userID, GuildID: guildID}
	err := s.query(ctx, "get_user_config", func(ctx context.Context) error {
		var locale sql.NullString
		var updatedAt string
		if err := s.db.QueryRowContext(ctx,
			`SELECT locale, updated_at FROM user_configs WHERE user_id = ? AND guild_id = ?`,
			userID, guildID,
		).Scan(&locale, &updatedAt); err != nil {
			return err
		}
		cfg.Locale = locale.String
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			cfg.UpdatedAt = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetUserLocale stores the user's language; an empty locale means "follow Discord"
func (s *Store) SetUserLocale(ctx context.Context, userID, guildID, locale string) error {
	var value sql.NullString
	if locale != "" {
		value = sql.NullString{String: locale, Valid: true}
	}

	now := s.timestamp()
	err := s.withRetry(ctx, "set_user_locale", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO user_configs (user_id, guild_id, locale, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, guild_id)
			DO UPDATE SET locale = excluded.locale, updated_at = excluded.updated_at`,
			userID, guildID, value, now, now,
		)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("guild_id", guildID).
		Str("locale", locale).
		Msg("User locale updated")

	return nil
}
