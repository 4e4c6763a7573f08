package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken       string
	DatabaseURL         string
	GeminiAPIKey        string
	GeminiModel         string
	RecipientChatID     int64  // Optional; 0 means "wait for /start"
	VaultPath           string // Optional; empty disables the markdown mirror
	LogLevel            string
	Environment         string
	CronSpecHourly      string // Hourly check-in tick
	CronSpecMaintenance string // Staleness sweep cadence
	CronSpecDailyReport string // Nightly report delivery and metrics snapshot
	DefaultWakeTime     string // "HH:MM", seed value for new recipients
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-1.5-flash"
	}

	if chatIDStr := os.Getenv("RECIPIENT_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RECIPIENT_CHAT_ID: %w", err)
		}
		cfg.RecipientChatID = chatID
	}

	cfg.VaultPath = os.Getenv("VAULT_PATH")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecHourly = os.Getenv("CRON_SPEC_HOURLY")
	if cfg.CronSpecHourly == "" {
		cfg.CronSpecHourly = "0 * * * *" // Default: top of every hour
	}

	cfg.CronSpecMaintenance = os.Getenv("CRON_SPEC_MAINTENANCE")
	if cfg.CronSpecMaintenance == "" {
		cfg.CronSpecMaintenance = "*/30 * * * *" // Default: every 30 minutes
	}

	cfg.CronSpecDailyReport = os.Getenv("CRON_SPEC_DAILY_REPORT")
	if cfg.CronSpecDailyReport == "" {
		cfg.CronSpecDailyReport = "55 23 * * *" // Default: 23:55 daily
	}

	cfg.DefaultWakeTime = os.Getenv("DEFAULT_WAKE_TIME")
	if cfg.DefaultWakeTime == "" {
		cfg.DefaultWakeTime = "08:00"
	}
	if _, err := time.Parse("15:04", cfg.DefaultWakeTime); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_WAKE_TIME %q: %w", cfg.DefaultWakeTime, err)
	}

	return cfg, nil
}
