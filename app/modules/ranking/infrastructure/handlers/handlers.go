package rankinghandlers

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	rankingservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/application"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

// RankingHandlers implements the Handlers interface. Every request is
// answered, so failures reply with the generic reason rather than erroring
// into the router's retry loop.
type RankingHandlers struct {
	service rankingservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRankingHandlers creates a new RankingHandlers instance.
func NewRankingHandlers(service rankingservice.Service, logger *slog.Logger, tracer trace.Tracer) *RankingHandlers {
	return &RankingHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleRankingRequested computes the standings of one category.
func (h *RankingHandlers) HandleRankingRequested(ctx context.Context, payload *events.RankingRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RankingHandlers.HandleRankingRequested")
	defer span.End()

	category := matchdomain.Category{Map: payload.Map, TimeLimit: payload.TimeLimit}
	standings, err := h.service.Aggregate(ctx, category)
	if err != nil {
		span.RecordError(err)
		h.logger.WarnContext(ctx, "Ranking request failed",
			observability.CorrelationAttr(ctx),
			slog.String("category", category.String()),
			slog.Any("error", err),
		)
		return []handlerwrapper.Result{{
			Topic: events.RankingFailed,
			Payload: events.RankingFailedPayload{
				ChatID:    payload.ChatID,
				Map:       payload.Map,
				TimeLimit: payload.TimeLimit,
				Reason:    events.GenericFailureReason,
			},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic: events.RankingComputed,
		Payload: events.RankingComputedPayload{
			ChatID:    payload.ChatID,
			Map:       payload.Map,
			TimeLimit: payload.TimeLimit,
			Matches:   standings.Matches,
			Totals:    StandingEntries(standings.Totals),
			Averages:  StandingEntries(standings.Averages),
		},
	}}, nil
}

// HandleRecordsRequested returns the best raw scores of every category.
func (h *RankingHandlers) HandleRecordsRequested(ctx context.Context, payload *events.RecordsRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RankingHandlers.HandleRecordsRequested")
	defer span.End()

	records, err := h.service.Records(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.WarnContext(ctx, "Records request failed",
			observability.CorrelationAttr(ctx),
			slog.Any("error", err),
		)
		return []handlerwrapper.Result{{
			Topic: events.RankingFailed,
			Payload: events.RankingFailedPayload{
				ChatID: payload.ChatID,
				Reason: events.GenericFailureReason,
			},
		}}, nil
	}

	categories := make([]events.CategoryRecords, 0, len(records))
	for _, c := range records {
		top := make([]events.RecordEntry, len(c.Top))
		for i, r := range c.Top {
			top[i] = events.RecordEntry{Rank: r.Rank, Player: r.Player, Score: r.Score, Link: r.Link}
		}
		categories = append(categories, events.CategoryRecords{
			Map:       c.Category.Map,
			TimeLimit: c.Category.TimeLimit,
			Top:       top,
		})
	}

	return []handlerwrapper.Result{{
		Topic:   events.RecordsComputed,
		Payload: events.RecordsComputedPayload{ChatID: payload.ChatID, Categories: categories},
	}}, nil
}

// StandingEntries maps ranked standings onto their wire form.
func StandingEntries(standings []rankingdomain.Standing) []events.StandingEntry {
	out := make([]events.StandingEntry, len(standings))
	for i, s := range standings {
		out[i] = events.StandingEntry{
			Rank:    s.Rank,
			Player:  s.Label(),
			Points:  s.Points,
			Display: s.Display(),
		}
	}
	return out
}
