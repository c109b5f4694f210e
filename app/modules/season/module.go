package season

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	seasonservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/application"
	seasonhandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/handlers"
	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	seasonrouter "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/router"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/config"
)

// EventBus is the transport used by the module.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Module represents the season module.
type Module struct {
	SeasonService *seasonservice.SeasonService
	SeasonRouter  *seasonrouter.SeasonRouter
	logger        *slog.Logger
}

// NewSeasonModule creates and initializes a new season module. Its service
// also resolves seasons for the match module.
func NewSeasonModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	eventBus EventBus,
	router *message.Router,
	routerCtx context.Context,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "season.NewSeasonModule initializing")

	repo := seasondb.NewRepository(db)
	service := seasonservice.NewSeasonService(repo, logger, obs.Metrics("season"), tracer, db, cfg.Season.GraceWindow)
	handlers := seasonhandlers.NewSeasonHandlers(service, logger, tracer, cfg.Location())

	seasonRouter := seasonrouter.NewSeasonRouter(logger, router, eventBus, eventBus, tracer)
	if err := seasonRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure season router: %w", err)
	}

	return &Module{
		SeasonService: service,
		SeasonRouter:  seasonRouter,
		logger:        logger,
	}, nil
}

// Close shuts down the season module.
func (m *Module) Close() error {
	m.logger.Info("Stopping season module")
	if m.SeasonRouter != nil {
		if err := m.SeasonRouter.Close(); err != nil {
			return fmt.Errorf("error closing SeasonRouter: %w", err)
		}
	}
	return nil
}
