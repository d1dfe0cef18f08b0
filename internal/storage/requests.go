package storage

import (
	"context"
	"time"

	"github.com/discord-summary-bot/internal/models"
)

// LogSummaryRequest records one summarize run
func (s *Store) LogSummaryRequest(ctx context.Context, req *models.SummaryRequest) error {
	// Set created_at if not set
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}

	err := s.withRetry(ctx, "log_summary_request", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO summary_requests (
				invocation_id, user_id, guild_id, channel_id, choice, locale,
				message_count, chunk_count, provider, model, duration_ms,
				outcome, error_message, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.InvocationID, req.UserID, req.GuildID, req.ChannelID, req.Option, req.Locale,
			req.MessageCount, req.ChunkCount, req.Provider, req.Model, req.DurationMs,
			req.Outcome, req.ErrorMessage, req.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
		req.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", req.UserID).
			Str("model", req.Model).
			Msg("Failed to log summary request")
		return err
	}

	s.logger.Debug().
		Str("user_id", req.UserID).
		Str("guild_id", req.GuildID).
		Str("outcome", req.Outcome).
		Int("chunk_count", req.ChunkCount).
		Int64("duration_ms", req.DurationMs).
		Msg("Summary request logged successfully")

	return nil
}

// GetUserTotalRequests returns how many summarize runs a user made in a guild
func (s *Store) GetUserTotalRequests(ctx context.Context, userID, guildID string) (int64, error) {
	var count int64
	err := s.query(ctx, "get_user_total_requests", func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM summary_requests WHERE user_id = ? AND guild_id = ?`,
			userID, guildID,
		).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListSummaryRequests returns a guild's most recent runs, newest first
func (s *Store) ListSummaryRequests(ctx context.Context, guildID string, limit int) ([]models.SummaryRequest, error) {
	var out []models.SummaryRequest

	err := s.query(ctx, "list_summary_requests", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, invocation_id, user_id, guild_id, channel_id, choice, locale,
				message_count, chunk_count, provider, model, duration_ms,
				outcome, error_message, created_at
			FROM summary_requests
			WHERE guild_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`,
			guildID, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r models.SummaryRequest
			var createdAt string
			if err := rows.Scan(
				&r.ID, &r.InvocationID, &r.UserID, &r.GuildID, &r.ChannelID, &r.Option, &r.Locale,
				&r.MessageCount, &r.ChunkCount, &r.Provider, &r.Model, &r.DurationMs,
				&r.Outcome, &r.ErrorMessage, &createdAt,
			); err != nil {
				return err
			}
			r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
