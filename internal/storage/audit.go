package storage

import (
	"context"
	"time"

	"github.com/discord-summary-bot/internal/models"
)

// LogAdminAction appends an entry to the admin audit log
func (s *Store) LogAdminAction(ctx context.Context, entry *models.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.Details == "" {
		entry.Details = "{}"
	}

	err := s.withRetry(ctx, "log_admin_action", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO admin_audit_log (guild_id, user_id, action, details, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			entry.GuildID, entry.UserID, entry.Action, entry.Details,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
		entry.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("guild_id", entry.GuildID).
		Str("user_id", entry.UserID).
		Str("action", entry.Action).
		Msg("Admin action logged")

	return nil
}

// ListAuditEntries returns the most recent admin actions for a guild, newest first
func (s *Store) ListAuditEntries(ctx context.Context, guildID string, limit int) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry

	err := s.query(ctx, "list_audit_entries", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, guild_id, user_id, action, details, created_at
			FROM admin_audit_log
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
			var e models.AuditEntry
			var createdAt string
			if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.Action, &e.Details, &createdAt); err != nil {
				return err
			}
			e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
