package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchhandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/handlers"
	matchqueue "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/queue"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	matchrouter "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/router"
	"github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/scraper"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/config"
)

// EventBus is the transport used by the module.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Module represents the match module.
type Module struct {
	MatchService matchservice.Service
	Queue        *matchqueue.Service
	MatchRouter  *matchrouter.MatchRouter
	cancelFunc   context.CancelFunc
	logger       *slog.Logger
}

// NewMatchModule creates and initializes a new match module.
func NewMatchModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	eventBus EventBus,
	router *message.Router,
	routerCtx context.Context,
	db *bun.DB,
	seasons matchservice.SeasonResolver,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "match.NewMatchModule initializing")

	// 1. Initialize Repository
	repo := matchdb.NewRepository(db)

	// 2. Initialize Service
	service := matchservice.NewMatchService(repo, seasons, logger, obs.Metrics("match"), tracer, db)

	// 3. Initialize the scraper and the refresh queue
	fetcher := scraper.NewFetcher(scraper.Config{
		BaseURL:           cfg.Scraper.BaseURL,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Burst:             cfg.Scraper.Burst,
		Timeout:           cfg.Scraper.Timeout,
	})
	worker := matchqueue.NewRefreshWorker(fetcher, service, eventBus, logger, tracer)
	queue, err := matchqueue.NewService(ctx, matchqueue.Config{
		DSN:         cfg.Postgres.DSN,
		Workers:     cfg.Queue.Workers,
		MaxAttempts: cfg.Queue.MaxAttempts,
	}, worker, logger, obs.Metrics("queue"))
	if err != nil {
		return nil, fmt.Errorf("failed to create match queue: %w", err)
	}

	// 4. Initialize Handlers
	handlers := matchhandlers.NewMatchHandlers(service, queue, logger, tracer)

	// 5. Initialize Router
	matchRouter := matchrouter.NewMatchRouter(logger, router, eventBus, eventBus, tracer)

	// 6. Configure the router with handlers
	if err := matchRouter.Configure(routerCtx, handlers); err != nil {
		queue.Close()
		return nil, fmt.Errorf("failed to configure match router: %w", err)
	}

	return &Module{
		MatchService: service,
		Queue:        queue,
		MatchRouter:  matchRouter,
		logger:       logger,
	}, nil
}

// Run starts the refresh queue and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting match module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.Queue.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Match queue failed to start", slog.Any("error", err))
		return
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Match module goroutine stopped")
}

// Close shuts down the match module.
func (m *Module) Close() error {
	m.logger.Info("Stopping match module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if m.Queue != nil {
		if err := m.Queue.Stop(stopCtx); err != nil {
			m.logger.Error("Error stopping match queue", "error", err)
		}
	}

	if m.MatchRouter != nil {
		if err := m.MatchRouter.Close(); err != nil {
			m.logger.Error("Error closing MatchRouter from module", "error", err)
			return fmt.Errorf("error closing MatchRouter: %w", err)
		}
	}

	m.logger.Info("Match module stopped")
	return nil
}
