package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Хранилище: supabase или sqlite
	DataBackend   string
	SupabaseURL   string
	SupabaseKey   string
	SQLitePath    string
	LocalUserID   string
	TelegramToken string

	LogLevel        string
	Timezone        string
	DefaultCurrency string

	// Сверка целей
	ReconcileConcurrency int
	ReconcileDedupe      bool

	// События целей. Пустой AMQPURL отключает публикацию.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Срок жизни кода привязки Telegram
	LinkCodeTTL time.Duration
}

// LoadConfig читает .env, если он есть, и переменные окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return &Config{
		DataBackend:   strings.ToLower(getEnv("DATA_BACKEND", "supabase")),
		SupabaseURL:   os.Getenv("SUPABASE_URL"),
		SupabaseKey:   os.Getenv("SUPABASE_KEY"),
		SQLitePath:    getEnv("SQLITE_DB_PATH", "./data/dashboard.db"),
		LocalUserID:   os.Getenv("LOCAL_USER_ID"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Timezone:        getEnv("TIMEZONE", "UTC"),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),

		ReconcileConcurrency: getEnvInt("RECONCILE_CONCURRENCY", 4),
		ReconcileDedupe:      getEnvBool("RECONCILE_DEDUPE", false),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finance"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "goal_events"),

		LinkCodeTTL: getEnvDuration("LINK_CODE_TTL", 15*time.Minute),
	}, nil
}

// Validate проверяет все поля и возвращает одну ошибку со всеми проблемами
func (c *Config) Validate() error {
	var problems []string

	switch c.DataBackend {
	case "", "supabase":
		if c.SupabaseURL == "" {
			problems = append(problems, "SUPABASE_URL is required")
		} else if u, err := url.Parse(c.SupabaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid SUPABASE_URL '%s': must be an http(s) url", c.SupabaseURL))
		}
		if c.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_KEY is required")
		}
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			problems = append(problems, "SQLITE_DB_PATH is required for sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid DATA_BACKEND '%s': must be supabase or sqlite", c.DataBackend))
	}
	if c.TelegramToken == "" {
		problems = append(problems, "TELEGRAM_TOKEN is required")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid TIMEZONE '%s': %v", c.Timezone, err))
	}
	if len(c.DefaultCurrency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid DEFAULT_CURRENCY '%s': must be a 3-letter code", c.DefaultCurrency))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL '%s'", c.LogLevel))
	}

	if c.ReconcileConcurrency < 1 || c.ReconcileConcurrency > 32 {
		problems = append(problems, fmt.Sprintf("invalid RECONCILE_CONCURRENCY %d: must be between 1 and 32", c.ReconcileConcurrency))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			problems = append(problems, "invalid AMQP_URL: must use amqp or amqps scheme")
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			problems = append(problems, "AMQP_EXCHANGE and AMQP_QUEUE are required when AMQP_URL is set")
		}
	}

	if c.LinkCodeTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid LINK_CODE_TTL %s: must be positive", c.LinkCodeTTL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Location возвращает часовой пояс, в котором считается "сегодня"
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
