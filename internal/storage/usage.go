package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/discord-summary-bot/internal/models"
)

// GetUsageCount returns how many summaries the user ran in the guild on date
func (s *Store) GetUsageCount(ctx context.Context, userID, guildID, date string) (int, error) {
	var count int

	err := s.query(ctx, "get_usage_count", func(ctx context.Context) error {
		err := s.db.QueryRowContext(ctx,
			`SELECT usage_count FROM usage_tracking WHERE user_id = ? AND guild_id = ? AND usage_date = ?`,
			userID, guildID, date,
		).Scan(&count)
		if errors.Is(err, sql.ErrNoRows) {
			count = 0
			return nil
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("guild_id", guildID).
		Str("date", date).
		Int("count", count).
		Msg("Retrieved usage count")

	return count, nil
}

// IncrementUsage atomically bumps the usage counter, creating the row at 1 when absent
func (s *Store) IncrementUsage(ctx context.Context, userID, guildID, date string) error {
	now := s.timestamp()
	err := s.withRetry(ctx, "increment_usage", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO usage_tracking (user_id, guild_id, usage_date, usage_count, updated_at)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT(user_id, guild_id, usage_date)
			DO UPDATE SET usage_count = usage_count + 1, updated_at = excluded.updated_at`,
			userID, guildID, date, now,
		)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("guild_id", guildID).
		Str("date", date).
		Msg("Usage incremented")

	return nil
}

// GetGuildUsage returns every user's usage in the guild on date, busiest first
func (s *Store) GetGuildUsage(ctx context.Context, guildID, date string) ([]models.UsageRecord, error) {
	var records []models.UsageRecord

	err := s.query(ctx, "get_guild_usage", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT user_id, usage_count FROM usage_tracking
			WHERE guild_id = ? AND usage_date = ?
			ORDER BY usage_count DESC, user_id`,
			guildID, date,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			r := models.UsageRecord{GuildID: guildID, Date: date}
			if err := rows.Scan(&r.UserID, &r.Uses); err != nil {
				return err
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteUsageBefore removes usage rows dated strictly before date and returns the count removed
func (s *Store) DeleteUsageBefore(ctx context.Context, date string) (int64, error) {
	var deleted int64
	err := s.withRetry(ctx, "delete_usage_before", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM usage_tracking WHERE usage_date < ?`, date)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("before", date).
		Int64("deleted", deleted).
		Msg("Old usage rows deleted")

	return deleted, nil
}
