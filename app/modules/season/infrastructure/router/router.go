package seasonrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	seasonhandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/handlers"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
)

// SeasonRouter handles Watermill handler registration for season events.
type SeasonRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewSeasonRouter creates a new SeasonRouter.
func NewSeasonRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *SeasonRouter {
	return &SeasonRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *SeasonRouter) Configure(_ context.Context, handlers seasonhandlers.Handlers) error {
	handlerName := "season." + events.SeasonRolloverRequested
	r.router.AddNoPublisherHandler(
		handlerName,
		events.SeasonRolloverRequested,
		r.subscriber,
		handlerwrapper.WrapTransformingTyped[events.SeasonRolloverRequestedPayload](
			handlerName,
			r.logger,
			r.tracer,
			r.publisher,
			handlers.HandleRolloverRequested,
		),
	)

	r.logger.Info("Season module handlers registered successfully")
	return nil
}

// Close shuts down the router.
func (r *SeasonRouter) Close() error {
	return r.router.Close()
}
