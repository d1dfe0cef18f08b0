package models

import "time"

// DefaultMaxDailyUses is the quota applied to guilds without a usage_limits row
const DefaultMaxDailyUses = 10

// DateLayout is the format of usage day buckets (UTC calendar date)
const DateLayout = "2006-01-02"

// UserConfig represents per-user, per-guild preferences
type UserConfig struct {
	UserID  string `json:"user_id"`
	GuildID string `json:"guild_id"`
	// Locale is empty when the user follows the Discord client locale
	Locale    string    `json:"locale,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsageLimitSetting represents the daily quota configured for a guild
type UsageLimitSetting struct {
	GuildID      string    `json:"guild_id"`
	MaxDailyUses int       `json:"max_daily_uses"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UnlimitedRole represents a role whose members bypass the quota
type UnlimitedRole struct {
	GuildID string `json:"guild_id"`
	RoleID  string `json:"role_id"`
}

// UsageRecord represents the number of summaries a user ran in a guild on a day
type UsageRecord struct {
	UserID  string `json:"user_id"`
	GuildID string `json:"guild_id"`
	Date    string `json:"date"` // Format: YYYY-MM-DD in UTC
	Uses    int    `json:"uses"`
}

// AuditEntry represents one admin action recorded in the audit log
type AuditEntry struct {
	ID        int64     `json:"id"`
	GuildID   string    `json:"guild_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"` // JSON object
	CreatedAt time.Time `json:"created_at"`
}

// GuildSettings is the admin view of a guild's quota configuration
type GuildSettings struct {
	GuildID      string
	MaxDailyUses int
	ExemptRoles  []string
	Usage        []UsageRecord
	Date         string
}

// BotMessageFilter selects which bot-authored messages are excluded from summaries
type BotMessageFilter string

const (
	// FilterSelf drops only messages authored by this bot
	FilterSelf BotMessageFilter = "self"
	// FilterAllBots drops messages authored by any bot account
	FilterAllBots BotMessageFilter = "all"
)

// BotConfig represents bot configuration
type BotConfig struct {
	// Discord settings
	DiscordToken     string
	DiscordAppID     string
	DiscordGuildID   string // optional, registers commands for a single guild
	RegisterCommands bool
	MessageLinkBase  string
	BotMessageFilter BotMessageFilter

	// Completion service settings
	LLMProvider      string // openrouter | gemini
	OpenRouterAPIKey string
	OpenRouterURL    string
	GeminiAPIKey     string
	LLMModel         string
	LLMTimeout       int // seconds, per attempt
	LLMMaxRetries    int
	LLMRetryDelayMs  int
	LLMTemperature   float32
	LLMMaxTokens     int32

	// Storage settings
	DataDir        string
	StorageTimeout int // seconds
	BackupDir      string
	BackupKeep     int
	BackupS3Bucket string
	BackupS3Region string
	RetentionDays  int

	// Admin settings
	AdminCooldownMs int
	RedisURL        string

	// Summaries
	MaxConcurrentSummaries int
	ChoiceTimeout          int // seconds
	MaxChunkLength         int
	FetchPageSize          int

	// App settings
	LogLevel    string
	Environment string
}

// LLMTimeoutDuration returns the per-attempt completion timeout
func (c *BotConfig) LLMTimeoutDuration() time.Duration {
	return time.Duration(c.LLMTimeout) * time.Second
}

// ChoiceTimeoutDuration returns how long the option buttons stay active
func (c *BotConfig) ChoiceTimeoutDuration() time.Duration {
	return time.Duration(c.ChoiceTimeout) * time.Second
}

// SummaryRequest records one summarize run after the user picked an option
type SummaryRequest struct {
	ID           int64     `json:"id"`
	InvocationID string    `json:"invocation_id"`
	UserID       string    `json:"user_id"`
	GuildID      string    `json:"guild_id"`
	ChannelID    string    `json:"channel_id"`
	Option       string    `json:"option"`
	Locale       string    `json:"locale"`
	MessageCount int       `json:"message_count"`
	ChunkCount   int       `json:"chunk_count"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	DurationMs   int64     `json:"duration_ms"`
	Outcome      string    `json:"outcome"` // completed | failed
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
