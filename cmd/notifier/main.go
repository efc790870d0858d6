package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/finance_dashboard/internal/app"
	"github.com/ivanoskov/finance_dashboard/internal/bot"
	"github.com/ivanoskov/finance_dashboard/internal/config"
	"github.com/ivanoskov/finance_dashboard/internal/log"
)

// Читает события целей из очереди и пишет о них пользователям в Telegram
func main() {
	logger := log.New(log.DefaultConfig())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for notifier")
		os.Exit(1)
	}

	logger = log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: "notifier", Output: os.Stdout})
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dashboard", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	if a.Events == nil {
		logger.Error("AMQP broker unavailable")
		a.Close()
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("failed to create bot api", "error", err)
		a.Close()
		os.Exit(1)
	}

	notifier := bot.NewGoalNotifier(api, a.Dashboard, logger)
	if err := a.Events.Consume(ctx, notifier.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped with error", "error", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}
