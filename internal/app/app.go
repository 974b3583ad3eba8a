// Package app wires the widget store, the Databricks client, the services
// and the HTTP router into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"genie-dashboard/internal/api"
	"genie-dashboard/internal/config"
	"genie-dashboard/internal/databricks"
	internaldb "genie-dashboard/internal/db"
	"genie-dashboard/internal/db/repository"
	"genie-dashboard/internal/domain"
	"genie-dashboard/internal/events"
	"genie-dashboard/internal/middleware"
	"genie-dashboard/internal/service/genie"
	"genie-dashboard/internal/service/query"
	"genie-dashboard/internal/service/widget"
	"genie-dashboard/internal/ui"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
	// Clock drives statement polling. Nil means the real clock.
	Clock clockwork.Clock
	// HTTPClient overrides the Databricks transport, mainly for tests.
	HTTPClient databricks.HTTPDoer
}

// Services groups the service pointers the router needs.
type Services struct {
	Query        *query.QueryService
	Conversation *genie.ConversationService
	Widget       *widget.Service
}

// App holds the fully-wired application.
type App struct {
	Services    Services
	Broker      *events.Broker
	RateLimiter *middleware.RateLimiter
	Handler     http.Handler

	closers []func()
}

// New opens and migrates the widget store, then wires services and the
// router.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	a := &App{}
	repo, err := a.openStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := databricks.NewClient(databricks.ClientConfig{
		Host:       cfg.Databricks.Host,
		Token:      cfg.Databricks.Token,
		HTTPClient: deps.HTTPClient,
		Timeout:    cfg.Databricks.HTTPTimeout,
		Logger:     logger,
	})

	poller := query.NewPoller(client, clock, cfg.Databricks.PollInterval, logger)
	querySvc := query.NewQueryService(client, poller, query.Options{
		WarehouseID: cfg.Databricks.WarehouseID,
		WaitTimeout: cfg.Databricks.WaitTimeout,
		MaxAttempts: cfg.Databricks.PollMaxAttempts,
		Missing:     cfg.Databricks.MissingStatementSettings(),
		Logger:      logger,
	})
	convSvc := genie.NewConversationService(client, cfg.Databricks.SpaceID,
		cfg.Databricks.MissingGenieSettings(), logger)

	a.Broker = events.NewBroker(logger)
	widgetSvc := widget.NewService(repo, a.Broker, logger)
	querySvc.SetWidgetReader(widgetSvc)

	a.Services = Services{Query: querySvc, Conversation: convSvc, Widget: widgetSvc}

	if cfg.SeedDemo && !cfg.Databricks.HasStatementConfig() {
		if err := seedDemoWidget(ctx, widgetSvc); err != nil {
			logger.Warn("seed demo widget failed", "error", err)
		}
	}

	a.RateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	handler := api.NewHandler(convSvc, querySvc, widgetSvc, a.Broker, logger)
	dashboard := ui.NewHandler(widgetSvc, querySvc, 0, logger)
	a.Handler = api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        a.RateLimiter,
		Dashboard:          dashboard.Routes(),
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.WidgetRepository, error) {
	if cfg.UsePostgres() {
		pool, err := internaldb.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := internaldb.MigratePostgres(ctx, pool, logger); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("widget store ready", "backend", "postgres")
		return repository.NewPGWidgetRepo(pool), nil
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 0)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers,
		func() { _ = readDB.Close() },
		func() { _ = writeDB.Close() })
	if err := internaldb.RunMigrations(ctx, writeDB, internaldb.DialectSQLite, logger); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	logger.Info("widget store ready", "backend", "sqlite", "path", cfg.MetaDBPath)
	return repository.NewWidgetRepo(writeDB, readDB), nil
}

// Close releases the store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
