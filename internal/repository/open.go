package repository

import (
	"context"
	"fmt"

	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Backend - вид хранилища
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendSQLite   Backend = "sqlite"
)

func (b Backend) IsValid() bool {
	return b == BackendSupabase || b == BackendSQLite
}

// Options выбирают и настраивают хранилище
type Options struct {
	Backend     Backend
	SupabaseURL string
	SupabaseKey string
	SQLitePath  string
	// Профиль, который создается в локальной базе при старте
	SeedProfile *model.UserProfile
}

// Open создает хранилище. Возвращаемая функция освобождает его ресурсы.
func Open(ctx context.Context, opts Options, logger *log.Logger) (Repository, func() error, error) {
	if logger == nil {
		logger = log.Nop()
	}

	switch opts.Backend {
	case BackendSupabase, "":
		repo, err := NewSupabaseRepository(opts.SupabaseURL, opts.SupabaseKey, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("initialized supabase backend")
		return repo, func() error { return nil }, nil

	case BackendSQLite:
		repo, err := NewSQLiteRepository(opts.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize sqlite repository: %w", err)
		}
		if opts.SeedProfile != nil {
			if err := repo.SaveProfile(ctx, *opts.SeedProfile); err != nil {
				repo.Close()
				return nil, nil, err
			}
		}
		logger.Info("initialized sqlite backend", "db_path", opts.SQLitePath)
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", opts.Backend)
	}
}
