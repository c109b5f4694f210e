package seasonhandlers

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	seasonservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/application"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

// Handlers defines the interface for season event handlers.
type Handlers interface {
	HandleRolloverRequested(ctx context.Context, payload *events.SeasonRolloverRequestedPayload) ([]handlerwrapper.Result, error)
}

// SeasonHandlers implements the Handlers interface.
type SeasonHandlers struct {
	service  seasonservice.Service
	logger   *slog.Logger
	tracer   trace.Tracer
	location *time.Location
	now      func() time.Time
}

// NewSeasonHandlers creates a new SeasonHandlers instance. Rollover times
// without a zone are read in loc.
func NewSeasonHandlers(service seasonservice.Service, logger *slog.Logger, tracer trace.Tracer, loc *time.Location) *SeasonHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &SeasonHandlers{
		service:  service,
		logger:   logger,
		tracer:   tracer,
		location: loc,
		now:      time.Now,
	}
}

// HandleRolloverRequested closes the current season at the requested time.
// Unparseable times, rejected rollovers and storage failures all reply with
// the generic failure reason.
func (h *SeasonHandlers) HandleRolloverRequested(ctx context.Context, payload *events.SeasonRolloverRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "SeasonHandlers.HandleRolloverRequested")
	defer span.End()

	endAt, err := seasonservice.ParseRolloverTime(payload.At, h.now(), h.location)
	if err != nil {
		h.logger.WarnContext(ctx, "Rollover time not understood",
			observability.CorrelationAttr(ctx),
			slog.String("at", payload.At),
			slog.Any("error", err),
		)
		return failed(payload.ChatID), nil
	}

	result, err := h.service.Rollover(ctx, endAt)
	if err != nil {
		span.RecordError(err)
		return failed(payload.ChatID), nil
	}
	if result.IsFailure() {
		h.logger.WarnContext(ctx, "Rollover rejected",
			observability.CorrelationAttr(ctx),
			slog.Time("end_at", endAt),
			slog.Any("error", *result.Failure),
		)
		return failed(payload.ChatID), nil
	}

	return []handlerwrapper.Result{{
		Topic: events.SeasonRolledOver,
		Payload: events.SeasonRolledOverPayload{
			ChatID:       payload.ChatID,
			ClosedSeason: result.Success.ClosedSeason,
			ClosedAt:     result.Success.ClosedAt,
			OpenedSeason: result.Success.OpenedSeason,
		},
	}}, nil
}

func failed(chatID string) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: events.SeasonRolloverFailed,
		Payload: events.SeasonRolloverFailedPayload{
			ChatID: chatID,
			Reason: events.GenericFailureReason,
		},
	}}
}
