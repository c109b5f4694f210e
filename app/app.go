// Package app wires the modules, the event bus and the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/Black-And-White-Club/geoguessr-bot/app/eventbus"
	"github.com/Black-And-White-Club/geoguessr-bot/app/httpserver"
	"github.com/Black-And-White-Club/geoguessr-bot/app/modules/match"
	"github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking"
	"github.com/Black-And-White-Club/geoguessr-bot/app/modules/season"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/database"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/config"
)

// App holds every long-lived component of the bot.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      *eventbus.EventBus
	Router        *message.Router
	SeasonModule  *season.Module
	MatchModule   *match.Module
	RankingModule *ranking.Module
	HTTPServer    *httpserver.Server

	routerCtx    context.Context
	routerCancel context.CancelFunc
}

// NewApp connects to Postgres and NATS and builds every module.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(config.ToObsConfig(cfg))
	logger := obs.Logger

	db, err := database.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	bus, err := eventbus.NewEventBus(cfg.NATS.URL, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	router, err := newRouter(cfg, obs)
	if err != nil {
		bus.Close()
		db.Close()
		return nil, err
	}

	app := &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      bus,
		Router:        router,
	}
	app.routerCtx, app.routerCancel = context.WithCancel(ctx)

	if err := app.initModules(ctx); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.HTTP.Address != "" {
		handler := httpserver.NewRouter(httpserver.Deps{
			DB:       db,
			Rankings: app.RankingModule.RankingService,
			Gatherer: obs.Registry,
			Logger:   logger,
		})
		app.HTTPServer = httpserver.NewServer(cfg.HTTP.Address, handler, logger)
	}

	logger.InfoContext(ctx, "Application initialized")
	return app, nil
}

func newRouter(cfg *config.Config, obs observability.Observability) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(obs.Logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Watermill router: %w", err)
	}

	if cfg.Observability.Environment != "test" && obs.Registry != nil {
		metrics.NewPrometheusMetricsBuilder(obs.Registry, "geoguessr", "router").AddPrometheusRouterMetrics(router)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)
	return router, nil
}

func (app *App) initModules(ctx context.Context) error {
	var err error

	app.SeasonModule, err = season.NewSeasonModule(ctx, app.Config, app.Observability, app.EventBus, app.Router, app.routerCtx, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize season module: %w", err)
	}

	app.MatchModule, err = match.NewMatchModule(ctx, app.Config, app.Observability, app.EventBus, app.Router, app.routerCtx, app.DB, app.SeasonModule.SeasonService)
	if err != nil {
		return fmt.Errorf("failed to initialize match module: %w", err)
	}

	app.RankingModule, err = ranking.NewRankingModule(ctx, app.Observability, app.EventBus, app.Router, app.routerCtx, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize ranking module: %w", err)
	}
	return nil
}

// Run starts the router, the refresh queue and the HTTP server, and blocks
// until ctx is cancelled or one of them fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.Router.Run(app.routerCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watermill router stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.MatchModule.Run(gctx, nil)
		return nil
	})

	if app.HTTPServer != nil {
		g.Go(func() error {
			return app.HTTPServer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown requested")
		app.routerCancel()
		return nil
	})

	return g.Wait()
}

// Close releases every resource in reverse order of creation.
func (app *App) Close() error {
	logger := app.Observability.Logger
	var errs []error

	if app.routerCancel != nil {
		app.routerCancel()
	}
	if app.RankingModule != nil {
		errs = append(errs, app.RankingModule.Close())
	}
	if app.MatchModule != nil {
		errs = append(errs, app.MatchModule.Close())
	}
	if app.SeasonModule != nil {
		errs = append(errs, app.SeasonModule.Close())
	}
	if app.Router != nil {
		errs = append(errs, app.Router.Close())
	}
	if app.EventBus != nil {
		errs = append(errs, app.EventBus.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("Errors during shutdown", slog.Any("error", err))
	} else {
		logger.Info("Application shut down gracefully")
	}
	return err
}
