package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/app"
	"github.com/ivanoskov/finance_dashboard/internal/config"
	"github.com/ivanoskov/finance_dashboard/internal/log"
)

// Выдает одноразовый код привязки Telegram для профиля.
// Id профиля берется из первого аргумента или LINK_USER_ID, для sqlite по умолчанию LOCAL_USER_ID.
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

	userID := os.Getenv("LINK_USER_ID")
	if len(os.Args) > 1 {
		userID = os.Args[1]
	}
	if userID == "" && cfg.DataBackend == "sqlite" {
		userID = cfg.LocalUserID
	}
	if userID == "" {
		logger.Error("user id is required: pass it as an argument or set LINK_USER_ID")
		os.Exit(1)
	}

	logger = log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: "linkcode", Output: os.Stderr})
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dashboard", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	code, err := a.Dashboard.IssueLinkCode(ctx, userID)
	if err != nil {
		logger.Error("failed to issue link code", "user_id", userID, "error", err)
		a.Close()
		os.Exit(1)
	}

	fmt.Printf("Код: %s\nДействует до: %s\nОтправьте боту: /start %s\n",
		code.Code, code.ExpiresAt.In(cfg.Location()).Format(time.DateTime), code.Code)
}
