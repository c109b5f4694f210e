package rankingrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	rankinghandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/infrastructure/handlers"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
)

// RankingRouter handles Watermill handler registration for ranking events.
type RankingRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewRankingRouter creates a new RankingRouter.
func NewRankingRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *RankingRouter {
	return &RankingRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *RankingRouter) Configure(_ context.Context, handlers rankinghandlers.Handlers) error {
	r.register(events.RankingRequested, handlerwrapper.WrapTransformingTyped[events.RankingRequestedPayload](
		"ranking."+events.RankingRequested, r.logger, r.tracer, r.publisher, handlers.HandleRankingRequested,
	))
	r.register(events.RecordsRequested, handlerwrapper.WrapTransformingTyped[events.RecordsRequestedPayload](
		"ranking."+events.RecordsRequested, r.logger, r.tracer, r.publisher, handlers.HandleRecordsRequested,
	))

	r.logger.Info("Ranking module handlers registered successfully")
	return nil
}

func (r *RankingRouter) register(topic string, handler message.NoPublishHandlerFunc) {
	r.router.AddNoPublisherHandler("ranking."+topic, topic, r.subscriber, handler)
}

// Close shuts down the router.
func (r *RankingRouter) Close() error {
	return r.router.Close()
}
