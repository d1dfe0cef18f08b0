package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/discord-summary-bot/internal/models"
	"github.com/rs/zerolog"
)

// ErrCooldown is returned when an admin acts again within the cooldown window
var ErrCooldown = errors.New("admin command on cooldown")

// ValidationError reports an invalid admin argument
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Audit actions
const (
	ActionSetLimit   = "set_max_daily_uses"
	ActionAddRole    = "add_unlimited_role"
	ActionRemoveRole = "remove_unlimited_role"
)

// Store is the persistence the ledger relies on
type Store interface {
	GetUsageLimit(ctx context.Context, guildID string) (int, error)
	SetUsageLimit(ctx context.Context, guildID string, limit int) error
	GetUnlimitedRoles(ctx context.Context, guildID string) ([]string, error)
	AddUnlimitedRole(ctx context.Context, guildID, roleID string) error
	RemoveUnlimitedRole(ctx context.Context, guildID, roleID string) error
	GetUsageCount(ctx context.Context, userID, guildID, date string) (int, error)
	IncrementUsage(ctx context.Context, userID, guildID, date string) error
	GetGuildUsage(ctx context.Context, guildID, date string) ([]models.UsageRecord, error)
	DeleteUsageBefore(ctx context.Context, date string) (int64, error)
	LogAdminAction(ctx context.Context, entry *models.AuditEntry) error
}

// Ledger tracks daily summary usage per user and guild and applies admin changes
type Ledger struct {
	store    Store
	cooldown Cooldown
	window   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewLedger creates a new usage ledger. A zero cooldownWindow disables the admin cooldown.
func NewLedger(store Store, cooldown Cooldown, cooldownWindow time.Duration, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:    store,
		cooldown: cooldown,
		window:   cooldownWindow,
		now:      time.Now,
		logger:   logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Today returns the current UTC calendar date used as the usage bucket
func (l *Ledger) Today() string {
	return l.now().UTC().Format(models.DateLayout)
}

// IsExempt reports whether any of the member's roles is an unlimited role in the guild
func (l *Ledger) IsExempt(ctx context.Context, memberRoleIDs []string, guildID string) (bool, error) {
	if len(memberRoleIDs) == 0 {
		return false, nil
	}

	roles, err := l.store.GetUnlimitedRoles(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to get unlimited roles: %w", err)
	}

	exempt := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		exempt[r] = struct{}{}
	}
	for _, r := range memberRoleIDs {
		if _, ok := exempt[r]; ok {
			return true, nil
		}
	}
	return false, nil
}

// HasReachedLimit reports whether the user has used all summaries for day
func (l *Ledger) HasReachedLimit(ctx context.Context, userID, guildID, day string) (bool, error) {
	limit, used, err := l.usage(ctx, userID, guildID, day)
	if err != nil {
		return false, err
	}

	l.logger.Debug().
		Str("user_id", userID).
		Str("guild_id", guildID).
		Int("used", used).
		Int("limit", limit).
		Msg("Checking usage limit")

	return used >= limit, nil
}

// RemainingUses returns how many summaries the user may still run on day
func (l *Ledger) RemainingUses(ctx context.Context, userID, guildID, day string) (int, error) {
	limit, used, err := l.usage(ctx, userID, guildID, day)
	if err != nil {
		return 0, err
	}
	return max(0, limit-used), nil
}

func (l *Ledger) usage(ctx context.Context, userID, guildID, day string) (limit, used int, err error) {
	limit, err = l.store.GetUsageLimit(ctx, guildID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get usage limit: %w", err)
	}
	used, err = l.store.GetUsageCount(ctx, userID, guildID, day)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get usage count: %w", err)
	}
	return limit, used, nil
}

// RecordUse consumes one summary slot for the user on day
func (l *Ledger) RecordUse(ctx context.Context, userID, guildID, day string) error {
	if err := l.store.IncrementUsage(ctx, userID, guildID, day); err != nil {
		l.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("guild_id", guildID).
			Str("date", day).
			Msg("Failed to record usage")
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Settings returns the guild's quota, exempt roles and usage on day
func (l *Ledger) Settings(ctx context.Context, guildID, day string) (*models.GuildSettings, error) {
	limit, err := l.store.GetUsageLimit(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage limit: %w", err)
	}
	roles, err := l.store.GetUnlimitedRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlimited roles: %w", err)
	}
	usage, err := l.store.GetGuildUsage(ctx, guildID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild usage: %w", err)
	}

	return &models.GuildSettings{
		GuildID:      guildID,
		MaxDailyUses: limit,
		ExemptRoles:  roles,
		Usage:        usage,
		Date:         day,
	}, nil
}

// SetQuota changes the guild's daily limit
func (l *Ledger) SetQuota(ctx context.Context, actorID, guildID string, limit int) error {
	if limit < 1 {
		return &ValidationError{Field: "limit", Reason: "must be at least 1"}
	}
	return l.adminAction(ctx, actorID, guildID, ActionSetLimit, map[string]any{"maxUses": limit}, func() error {
		return l.store.SetUsageLimit(ctx, guildID, limit)
	})
}

// AddExemptRole lets members of roleID bypass the daily limit
func (l *Ledger) AddExemptRole(ctx context.Context, actorID, guildID, roleID string) error {
	if roleID == "" {
		return &ValidationError{Field: "role", Reason: "is required"}
	}
	return l.adminAction(ctx, actorID, guildID, ActionAddRole, map[string]any{"roleId": roleID}, func() error {
		return l.store.AddUnlimitedRole(ctx, guildID, roleID)
	})
}

// RemoveExemptRole subjects members of roleID to the daily limit again
func (l *Ledger) RemoveExemptRole(ctx context.Context, actorID, guildID, roleID string) error {
	if roleID == "" {
		return &ValidationError{Field: "role", Reason: "is required"}
	}
	return l.adminAction(ctx, actorID, guildID, ActionRemoveRole, map[string]any{"roleId": roleID}, func() error {
		return l.store.RemoveUnlimitedRole(ctx, guildID, roleID)
	})
}

// adminAction enforces the cooldown, applies the change and records it in the audit log
func (l *Ledger) adminAction(ctx context.Context, actorID, guildID, action string, details map[string]any, apply func() error) error {
	if l.window > 0 {
		ok, err := l.cooldown.Acquire(ctx, actorID, l.window)
		if err != nil {
			l.logger.Warn().
				Err(err).
				Str("user_id", actorID).
				Msg("Cooldown check failed, allowing action")
		} else if !ok {
			return ErrCooldown
		}
	}

	if err := apply(); err != nil {
		l.logger.Error().
			Err(err).
			Str("guild_id", guildID).
			Str("user_id", actorID).
			Str("action", action).
			Msg("Admin action failed")
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	entry := &models.AuditEntry{
		GuildID:   guildID,
		UserID:    actorID,
		Action:    action,
		Details:   string(raw),
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.LogAdminAction(ctx, entry); err != nil {
		// Don't fail the action, just log
		l.logger.Error().
			Err(err).
			Str("guild_id", guildID).
			Str("action", action).
			Msg("Failed to write audit log")
	}

	l.logger.Info().
		Str("guild_id", guildID).
		Str("user_id", actorID).
		Str("action", action).
		RawJSON("details", raw).
		Msg("Admin action applied")

	return nil
}

// Cleanup deletes usage rows older than retentionDays
func (l *Ledger) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := l.now().UTC().AddDate(0, 0, -retentionDays).Format(models.DateLayout)
	deleted, err := l.store.DeleteUsageBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up usage: %w", err)
	}
	return deleted, nil
}
