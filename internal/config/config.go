package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/discord-summary-bot/internal/models"
	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables
// It first attempts to load from .env file, then reads environment variables
func Load() (*models.BotConfig, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	config := &models.BotConfig{
		// Discord settings
		DiscordToken:     getEnv("DISCORD_TOKEN", ""),
		DiscordAppID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordGuildID:   getEnv("DISCORD_GUILD_ID", ""),
		RegisterCommands: getEnvBool("DISCORD_REGISTER_COMMANDS", true),
		MessageLinkBase:  strings.TrimRight(getEnv("DISCORD_LINK_BASE", "https://discord.com/channels"), "/"),
		BotMessageFilter: models.BotMessageFilter(getEnv("BOT_MESSAGE_FILTER", string(models.FilterSelf))),

		// Completion service settings
		LLMProvider:      getEnv("LLM_PROVIDER", "openrouter"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterURL:    getEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", ""),
		LLMTimeout:       getEnvInt("LLM_TIMEOUT", 30),
		LLMMaxRetries:    getEnvInt("LLM_MAX_RETRIES", 3),
		LLMRetryDelayMs:  getEnvInt("LLM_RETRY_DELAY_MS", 1000),
		LLMTemperature:   getEnvFloat32("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:     int32(getEnvInt("LLM_MAX_TOKENS", 0)),

		// Storage settings
		DataDir:        getEnv("DATA_DIR", "data"),
		StorageTimeout: getEnvInt("STORAGE_TIMEOUT", 10),
		BackupDir:      getEnv("BACKUP_DIR", "data/backups"),
		BackupKeep:     getEnvInt("BACKUP_KEEP", 7),
		BackupS3Bucket: getEnv("BACKUP_S3_BUCKET", ""),
		BackupS3Region: getEnv("BACKUP_S3_REGION", "us-east-1"),
		RetentionDays:  getEnvInt("USAGE_RETENTION_DAYS", 30),

		// Admin settings
		AdminCooldownMs: getEnvInt("ADMIN_COOLDOWN_MS", 5000),
		RedisURL:        getEnv("REDIS_URL", ""),

		// Summaries
		MaxConcurrentSummaries: getEnvInt("MAX_CONCURRENT_SUMMARIES", 4),
		ChoiceTimeout:          getEnvInt("CHOICE_TIMEOUT", 60),
		MaxChunkLength:         getEnvInt("MAX_CHUNK_LENGTH", 1000),
		FetchPageSize:          getEnvInt("FETCH_PAGE_SIZE", 100),

		// App settings
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),
	}

	if config.LLMModel == "" {
		config.LLMModel = defaultModel(config.LLMProvider)
	}

	// Validate configuration
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// defaultModel returns the model used when LLM_MODEL is not set
func defaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.5-pro"
	}
	return "google/gemini-2.5-pro-preview-03-25"
}

// validate checks if all required configuration values are set
func validate(cfg *models.BotConfig) error {
	if cfg.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}

	switch cfg.LLMProvider {
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of: openrouter, gemini; got %s", cfg.LLMProvider)
	}

	switch cfg.BotMessageFilter {
	case models.FilterSelf, models.FilterAllBots:
	default:
		return fmt.Errorf("BOT_MESSAGE_FILTER must be one of: self, all; got %s", cfg.BotMessageFilter)
	}

	// Validate positive values
	positive := []struct {
		name  string
		value int
	}{
		{"LLM_TIMEOUT", cfg.LLMTimeout},
		{"STORAGE_TIMEOUT", cfg.StorageTimeout},
		{"BACKUP_KEEP", cfg.BackupKeep},
		{"USAGE_RETENTION_DAYS", cfg.RetentionDays},
		{"MAX_CONCURRENT_SUMMARIES", cfg.MaxConcurrentSummaries},
		{"CHOICE_TIMEOUT", cfg.ChoiceTimeout},
		{"MAX_CHUNK_LENGTH", cfg.MaxChunkLength},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if cfg.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative, got %d", cfg.LLMMaxRetries)
	}
	if cfg.AdminCooldownMs < 0 {
		return fmt.Errorf("ADMIN_COOLDOWN_MS must not be negative, got %d", cfg.AdminCooldownMs)
	}
	if cfg.FetchPageSize <= 0 || cfg.FetchPageSize > 100 {
		return fmt.Errorf("FETCH_PAGE_SIZE must be between 1 and 100, got %d", cfg.FetchPageSize)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", cfg.LogLevel)
	}

	return nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool retrieves environment variable as bool or returns default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvFloat32 retrieves environment variable as float32 or returns default value
func getEnvFloat32(key string, defaultValue float32) float32 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 32)
	if err != nil {
		return defaultValue
	}

	return float32(value)
}
