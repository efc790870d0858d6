package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivanoskov/finance_dashboard/internal/app"
	"github.com/ivanoskov/finance_dashboard/internal/bot"
	"github.com/ivanoskov/finance_dashboard/internal/config"
	"github.com/ivanoskov/finance_dashboard/internal/log"
)

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

	logger = log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: "app", Output: os.Stdout})
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dashboard", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	b, err := bot.NewBot(cfg.TelegramToken, a.Dashboard, logger)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		a.Close()
		os.Exit(1)
	}

	if err := b.Start(ctx); err != nil {
		logger.Error("bot stopped with error", "error", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
