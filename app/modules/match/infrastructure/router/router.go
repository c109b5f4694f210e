package matchrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	matchhandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/handlers"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
)

// MatchRouter handles Watermill handler registration for match events.
type MatchRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewMatchRouter creates a new MatchRouter.
func NewMatchRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *MatchRouter {
	return &MatchRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *MatchRouter) Configure(_ context.Context, handlers matchhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandlers wires NATS topics to handler methods.
func (r *MatchRouter) registerHandlers(handlers matchhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, events.ChatMessageReceived, handlers.HandleChatMessage)
	registerHandler(deps, events.MatchRefreshRequested, handlers.HandleRefreshRequested)
	registerHandler(deps, events.MatchPayloadReceived, handlers.HandlePayloadReceived)
	registerHandler(deps, events.WhitelistAddRequested, handlers.HandleWhitelistAdd)

	r.logger.Info("Match module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "match." + topic

	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		handlerwrapper.WrapTransformingTyped[T](
			handlerName,
			deps.logger,
			deps.tracer,
			deps.publisher,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *MatchRouter) Close() error {
	return r.router.Close()
}
