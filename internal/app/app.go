// Package app собирает зависимости дашборда из конфигурации.
package app

import (
	"context"
	"errors"

	"github.com/ivanoskov/finance_dashboard/internal/config"
	"github.com/ivanoskov/finance_dashboard/internal/events"
	"github.com/ivanoskov/finance_dashboard/internal/goals"
	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
	"github.com/ivanoskov/finance_dashboard/internal/repository"
	"github.com/ivanoskov/finance_dashboard/internal/service"
)

// App - собранный дашборд и его ресурсы
type App struct {
	Repository repository.Repository
	Dashboard  *service.Dashboard
	Events     *events.Client

	closers []func() error
}

// RepositoryOptions переводит конфигурацию в параметры хранилища
func RepositoryOptions(cfg *config.Config) repository.Options {
	opts := repository.Options{
		Backend:     repository.Backend(cfg.DataBackend),
		SupabaseURL: cfg.SupabaseURL,
		SupabaseKey: cfg.SupabaseKey,
		SQLitePath:  cfg.SQLitePath,
	}
	if opts.Backend == repository.BackendSQLite && cfg.LocalUserID != "" {
		opts.SeedProfile = &model.UserProfile{ID: cfg.LocalUserID, Currency: cfg.DefaultCurrency}
	}
	return opts
}

// New открывает хранилище и брокер событий. Недоступный брокер не мешает
// старту: дашборд работает без публикации.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	repo, closeRepo, err := repository.Open(ctx, RepositoryOptions(cfg), logger)
	if err != nil {
		return nil, err
	}
	a := &App{Repository: repo, closers: []func() error{closeRepo}}

	reconcilerOpts := []goals.Option{
		goals.WithConcurrency(cfg.ReconcileConcurrency),
		goals.WithLogger(logger.WithComponent("goals")),
	}
	if cfg.ReconcileDedupe {
		reconcilerOpts = append(reconcilerOpts, goals.WithLedger(goals.NewLedger()))
	}

	dashboardOpts := []service.Option{
		service.WithLocation(cfg.Location()),
		service.WithDefaultCurrency(cfg.DefaultCurrency),
		service.WithReconciler(goals.NewReconciler(repo, reconcilerOpts...)),
		service.WithLogger(logger),
		service.WithLinkCodeTTL(cfg.LinkCodeTTL),
	}

	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without goal events", "error", err)
		} else {
			a.Events = client
			a.closers = append(a.closers, client.Close)
			dashboardOpts = append(dashboardOpts, service.WithEvents(client))
			logger.Info("initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	a.Dashboard = service.NewDashboard(repo, dashboardOpts...)
	return a, nil
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
