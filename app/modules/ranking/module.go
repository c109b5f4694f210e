package ranking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	rankingservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/application"
	rankinghandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/infrastructure/handlers"
	rankingrouter "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/infrastructure/router"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

// EventBus is the transport used by the module.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Module represents the ranking module. It has no background work of its own.
type Module struct {
	RankingService rankingservice.Service
	RankingRouter  *rankingrouter.RankingRouter
	logger         *slog.Logger
}

// NewRankingModule creates and initializes a new ranking module reading from
// the match tables.
func NewRankingModule(
	ctx context.Context,
	obs observability.Observability,
	eventBus EventBus,
	router *message.Router,
	routerCtx context.Context,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "ranking.NewRankingModule initializing")

	service := rankingservice.NewRankingService(matchdb.NewRepository(db), logger, obs.Metrics("ranking"), tracer)
	handlers := rankinghandlers.NewRankingHandlers(service, logger, tracer)

	rankingRouter := rankingrouter.NewRankingRouter(logger, router, eventBus, eventBus, tracer)
	if err := rankingRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure ranking router: %w", err)
	}

	return &Module{
		RankingService: service,
		RankingRouter:  rankingRouter,
		logger:         logger,
	}, nil
}

// Close shuts down the ranking module.
func (m *Module) Close() error {
	m.logger.Info("Stopping ranking module")
	if m.RankingRouter != nil {
		if err := m.RankingRouter.Close(); err != nil {
			return fmt.Errorf("error closing RankingRouter: %w", err)
		}
	}
	return nil
}
