package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/ivanoskov/finance_dashboard/internal/app"
	"github.com/ivanoskov/finance_dashboard/internal/bot"
	"github.com/ivanoskov/finance_dashboard/internal/config"
	"github.com/ivanoskov/finance_dashboard/internal/log"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	Body string `json:"body"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Бот живет между вызовами одного экземпляра функции
var (
	initOnce sync.Once
	instance *bot.Bot
	logger   *log.Logger
	initErr  error
)

func setup() {
	cfg, err := config.LoadConfig()
	if err != nil {
		initErr = err
		return
	}
	if err := cfg.Validate(); err != nil {
		initErr = err
		return
	}

	logger = log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: "function", Output: os.Stdout, JSON: true})

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		initErr = err
		return
	}

	instance, initErr = bot.NewBot(cfg.TelegramToken, a.Dashboard, logger)
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	initOnce.Do(setup)
	if initErr != nil {
		return errorResponse("", initErr)
	}

	requestID := uuid.NewString()
	reqLogger := logger.With("request_id", requestID)

	// Обработка webhook-обновления
	if err := instance.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		reqLogger.ErrorContext(ctx, "webhook failed", "error", err)
		return errorResponse(requestID, err)
	}
	reqLogger.DebugContext(ctx, "webhook handled")

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Request-Id": requestID,
		},
	}, nil
}

func errorResponse(requestID string, err error) (*Response, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if requestID != "" {
		headers["X-Request-Id"] = requestID
	}
	return &Response{
		StatusCode: 500,
		Body:       err.Error(),
		Headers:    headers,
	}, nil
}

// Точка входа для локального тестирования: тело обновления читается из stdin
func main() {
	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	resp, _ := Handler(context.Background(), Request{Body: string(body)})
	fmt.Println(resp.StatusCode, resp.Body)
}
