package matchhandlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/trace"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchqueue "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/queue"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
)

const maxReconcileRetries = 4

// MatchHandlers implements the Handlers interface.
type MatchHandlers struct {
	service  matchservice.Service
	queue    Enqueuer
	logger   *slog.Logger
	tracer   trace.Tracer
	newRetry func() backoff.BackOff
}

// NewMatchHandlers creates a new MatchHandlers instance.
func NewMatchHandlers(
	service matchservice.Service,
	queue Enqueuer,
	logger *slog.Logger,
	tracer trace.Tracer,
) *MatchHandlers {
	return &MatchHandlers{
		service: service,
		queue:   queue,
		logger:  logger,
		tracer:  tracer,
		newRetry: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, maxReconcileRetries)
		},
	}
}

// HandleChatMessage enqueues a refresh for every match link in a chat message.
// Messages without links produce no events.
func (h *MatchHandlers) HandleChatMessage(ctx context.Context, payload *events.ChatMessageReceivedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandleChatMessage")
	defer span.End()

	links := matchdomain.DetectLinks(payload.Text)
	if len(links) == 0 {
		return nil, nil
	}

	h.logger.InfoContext(ctx, "Match links detected",
		observability.CorrelationAttr(ctx),
		slog.String("chat_id", payload.ChatID),
		slog.Any("links", links),
	)

	out := make([]handlerwrapper.Result, 0, len(links))
	for _, link := range links {
		res, err := h.queue.EnqueueRefresh(ctx, link, payload.ChatID)
		if err != nil {
			return nil, err
		}
		out = append(out, queuedResult(payload.ChatID, link, res))
	}
	return out, nil
}

// HandleRefreshRequested enqueues a refresh for one link. A malformed link is
// answered with a failure event instead of an error.
func (h *MatchHandlers) HandleRefreshRequested(ctx context.Context, payload *events.MatchRefreshRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandleRefreshRequested")
	defer span.End()

	if err := matchdomain.ValidateLink(payload.Link); err != nil {
		h.logger.WarnContext(ctx, "Invalid refresh link",
			observability.CorrelationAttr(ctx),
			slog.String("link", payload.Link),
			slog.Any("error", err),
		)
		return []handlerwrapper.Result{failedResult(payload.ChatID, payload.Link)}, nil
	}

	res, err := h.queue.EnqueueRefresh(ctx, payload.Link, payload.ChatID)
	if err != nil {
		return nil, err
	}
	return []handlerwrapper.Result{queuedResult(payload.ChatID, payload.Link, res)}, nil
}

// HandlePayloadReceived reconciles an already extracted payload, retrying
// storage failures with exponential backoff.
func (h *MatchHandlers) HandlePayloadReceived(ctx context.Context, payload *events.MatchPayloadReceivedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandlePayloadReceived")
	defer span.End()

	raw := matchdomain.RawMatch{
		Map:       payload.Map,
		TimeLimit: payload.TimeLimit,
	}
	if payload.Scores != nil {
		raw.Scores = make([]matchdomain.ScoreEntry, 0, len(payload.Scores))
		for _, s := range payload.Scores {
			raw.Scores = append(raw.Scores, matchdomain.ScoreEntry{PlayerName: s.PlayerName, TotalScore: s.TotalScore})
		}
	}

	var result results.OperationResult[matchservice.ReconcileOutcome, error]
	operation := func() error {
		var err error
		result, err = h.service.Reconcile(ctx, payload.Link, raw)
		if err != nil && !errors.Is(err, matchservice.ErrStorage) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		h.logger.WarnContext(ctx, "Reconcile failed, retrying",
			observability.CorrelationAttr(ctx),
			slog.String("link", payload.Link),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(h.newRetry(), ctx), notify); err != nil {
		span.RecordError(err)
		h.logger.ErrorContext(ctx, "Reconcile gave up",
			observability.CorrelationAttr(ctx),
			slog.String("link", payload.Link),
			slog.Any("error", err),
		)
		return []handlerwrapper.Result{failedResult(payload.ChatID, payload.Link)}, nil
	}

	if result.IsFailure() {
		h.logger.WarnContext(ctx, "Payload rejected",
			observability.CorrelationAttr(ctx),
			slog.String("link", payload.Link),
			slog.Any("error", *result.Failure),
		)
		return []handlerwrapper.Result{failedResult(payload.ChatID, payload.Link)}, nil
	}

	return []handlerwrapper.Result{{
		Topic:   events.MatchReconciled,
		Payload: matchqueue.ReconciledPayload(payload.ChatID, result.Success),
	}}, nil
}

// HandleWhitelistAdd adds a name to the whitelist.
func (h *MatchHandlers) HandleWhitelistAdd(ctx context.Context, payload *events.WhitelistAddRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandleWhitelistAdd")
	defer span.End()

	result, err := h.service.AddToWhitelist(ctx, payload.Name)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		h.logger.WarnContext(ctx, "Whitelist request rejected",
			observability.CorrelationAttr(ctx),
			slog.String("name", payload.Name),
			slog.Any("error", *result.Failure),
		)
		return nil, nil
	}

	return []handlerwrapper.Result{{
		Topic: events.WhitelistAdded,
		Payload: events.WhitelistAddedPayload{
			ChatID: payload.ChatID,
			Name:   result.Success.Name,
			Added:  result.Success.Added,
		},
	}}, nil
}

func queuedResult(chatID, link string, res matchqueue.EnqueueResult) handlerwrapper.Result {
	return handlerwrapper.Result{
		Topic: events.MatchRefreshQueued,
		Payload: events.MatchRefreshQueuedPayload{
			ChatID:    chatID,
			Link:      link,
			Duplicate: res.Duplicate,
		},
	}
}

func failedResult(chatID, link string) handlerwrapper.Result {
	return handlerwrapper.Result{
		Topic: events.MatchReconcileFailed,
		Payload: events.MatchReconcileFailedPayload{
			ChatID: chatID,
			Link:   link,
			Reason: events.GenericFailureReason,
		},
	}
}
