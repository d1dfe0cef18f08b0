package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/discord-summary-bot/internal/models"
)

// GetUsageLimit returns the guild's daily quota, or the default when no row exists
func (s *Store) GetUsageLimit(ctx context.Context, guildID string) (int, error) {
	limit := models.DefaultMaxDailyUses

	err := s.query(ctx, "get_usage_limit", func(ctx context.Context) error {
		err := s.db.QueryRowContext(ctx,
			`SELECT max_daily_uses FROM usage_limits WHERE guild_id = ?`, guildID,
		).Scan(&limit)
		if errors.Is(err, sql.ErrNoRows) {
			limit = models.DefaultMaxDailyUses
			return nil
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	return limit, nil
}

// SetUsageLimit creates or overwrites the guild's daily quota
func (s *Store) SetUsageLimit(ctx context.Context, guildID string, limit int) error {
	now := s.timestamp()
	err := s.withRetry(ctx, "set_usage_limit", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO usage_limits (guild_id, max_daily_uses, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(guild_id)
			DO UPDATE SET max_daily_uses = excluded.max_daily_uses, updated_at = excluded.updated_at`,
			guildID, limit, now,
		)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("guild_id", guildID).
		Int("limit", limit).
		Msg("Usage limit updated")

	return nil
}

// GetUnlimitedRoles returns the role IDs exempt from the guild quota
func (s *Store) GetUnlimitedRoles(ctx context.Context, guildID string) ([]string, error) {
	var roles []string

	err := s.query(ctx, "get_unlimited_roles", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT role_id FROM unlimited_roles WHERE guild_id = ? ORDER BY created_at, role_id`, guildID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var roleID string
			if err := rows.Scan(&roleID); err != nil {
				return err
			}
			roles = append(roles, roleID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// AddUnlimitedRole adds a role to the guild's exempt set. Adding an existing role is a no-op.
func (s *Store) AddUnlimitedRole(ctx context.Context, guildID, roleID string) error {
	now := s.timestamp()
	return s.withRetry(ctx, "add_unlimited_role", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO unlimited_roles (guild_id, role_id, created_at) VALUES (?, ?, ?)`,
			guildID, roleID, now,
		)
		return err
	})
}

// RemoveUnlimitedRole removes a role from the guild's exempt set
func (s *Store) RemoveUnlimitedRole(ctx context.Context, guildID, roleID string) error {
	return s.withRetry(ctx, "remove_unlimited_role", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM unlimited_roles WHERE guild_id = ? AND role_id = ?`,
			guildID, roleID,
		)
		return err
	})
}
