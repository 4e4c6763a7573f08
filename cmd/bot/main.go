package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/app"
	"kairos_assistant_bot/internal/infra/config"
	idb "kairos_assistant_bot/internal/infra/database"
	"kairos_assistant_bot/internal/infra/gemini"
	"kairos_assistant_bot/internal/infra/logger"
	"kairos_assistant_bot/internal/infra/scheduler"
	"kairos_assistant_bot/internal/infra/telegram"
	"kairos_assistant_bot/internal/infra/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	baseLogger := logger.Get().WithField("app", "kairos_assistant_bot")
	baseLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"log_level":   cfg.LogLevel,
	}).Info("Configuration loaded")

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		baseLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.Migrate(db); err != nil {
		baseLogger.WithError(err).Fatal("Database migration failed")
	}
	baseLogger.Info("Database ready")

	// Repositories
	checkInRepo := idb.NewPostgresCheckInRepository(db)
	recipientRepo := idb.NewPostgresRecipientRepository(db)
	activityRepo := idb.NewPostgresActivityRepository(db)
	taskRepo := idb.NewPostgresTaskRepository(db)
	metricsRepo := idb.NewPostgresMetricsRepository(db)

	// Telegram bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := baseLogger.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Unhandled bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		baseLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Gemini collaborators
	geminiClient := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	classifier := gemini.NewActivityClassifier(geminiClient, baseLogger)
	triager := gemini.NewTaskTriager(geminiClient, baseLogger)

	// Markdown mirror (optional)
	var mirror app.TaskMirror
	if cfg.VaultPath != "" {
		writer, err := vault.NewWriter(cfg.VaultPath, baseLogger)
		if err != nil {
			baseLogger.WithError(err).Warn("Vault mirror disabled")
		} else {
			mirror = writer
			baseLogger.WithField("vault_path", cfg.VaultPath).Info("Vault mirror enabled")
		}
	}

	// Services
	checkInService := app.NewCheckInServiceImpl(checkInRepo, recipientRepo, activityRepo, telegramClient, baseLogger)
	activityService := app.NewActivityServiceImpl(activityRepo, checkInRepo, taskRepo, classifier, checkInService, baseLogger)
	taskService := app.NewTaskServiceImpl(taskRepo, triager, mirror, baseLogger)
	reportService := app.NewReportServiceImpl(checkInRepo, activityRepo, metricsRepo, baseLogger)

	// Scheduler
	checkInScheduler := scheduler.NewCheckInScheduler(
		checkInService,
		reportService,
		recipientRepo,
		app.StubBusyChecker{},
		telegramClient,
		baseLogger,
		cfg.CronSpecHourly,
		cfg.CronSpecMaintenance,
		cfg.CronSpecDailyReport,
	)
	if err := checkInScheduler.Start(); err != nil {
		baseLogger.WithError(err).Fatal("Could not start scheduler")
	}

	// Handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	telegram.RegisterBotCommands(ctx, bot, recipientRepo, taskService, reportService, cfg.DefaultWakeTime, baseLogger)
	telegram.RegisterCheckInHandlers(ctx, bot, checkInService, activityService, baseLogger)

	baseLogger.Info("Setup complete, starting bot")
	go bot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	baseLogger.Info("Shutting down")
	checkInScheduler.Stop()
	cancel()
	bot.Stop()
	baseLogger.Info("Shut down gracefully")
}
