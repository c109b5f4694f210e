package matchqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/riverqueue/river"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/scraper"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
)

// ErrPermanent marks a refresh that River must not retry.
var ErrPermanent = errors.New("permanent refresh failure")

// Reconciler applies an extracted payload.
type Reconciler interface {
	Reconcile(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error)
}

// RefreshWorker fetches a results page, extracts the payload and reconciles it.
// Permanent failures cancel the job; anything else is retried by River.
type RefreshWorker struct {
	river.WorkerDefaults[RefreshMatchJob]

	fetcher    scraper.PageFetcher
	reconciler Reconciler
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewRefreshWorker creates a RefreshWorker.
func NewRefreshWorker(
	fetcher scraper.PageFetcher,
	reconciler Reconciler,
	publisher message.Publisher,
	logger *slog.Logger,
	tracer trace.Tracer,
) *RefreshWorker {
	return &RefreshWorker{
		fetcher:    fetcher,
		reconciler: reconciler,
		publisher:  publisher,
		logger:     logger,
		tracer:     tracer,
	}
}

// Work processes a single refresh job.
func (w *RefreshWorker) Work(ctx context.Context, job *river.Job[RefreshMatchJob]) error {
	ctx, span := w.tracer.Start(ctx, "RefreshWorker.Work", trace.WithAttributes(
		attribute.String("link", job.Args.Link),
		attribute.Int("attempt", job.Attempt),
	))
	defer span.End()

	link := job.Args.Link
	logger := w.logger.With(
		slog.String("link", link),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)
	lastAttempt := job.Attempt >= job.MaxAttempts

	body, err := w.fetcher.FetchResults(ctx, link)
	if err != nil {
		span.RecordError(err)
		if permanentFetchError(err) {
			logger.WarnContext(ctx, "Results page unavailable, cancelling job", slog.Any("error", err))
			w.publishFailure(ctx, job.Args)
			return cancel(err)
		}
		logger.ErrorContext(ctx, "Failed to fetch results page", slog.Any("error", err))
		if lastAttempt {
			w.publishFailure(ctx, job.Args)
		}
		return err
	}

	payload, err := scraper.Extract(body)
	if err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "No results payload on page, cancelling job", slog.Any("error", err))
		w.publishFailure(ctx, job.Args)
		return cancel(err)
	}

	result, err := w.reconciler.Reconcile(ctx, link, payload)
	if err != nil {
		span.RecordError(err)
		if lastAttempt {
			w.publishFailure(ctx, job.Args)
		}
		return err
	}
	if result.IsFailure() {
		failure := *result.Failure
		logger.WarnContext(ctx, "Payload rejected, cancelling job", slog.Any("error", failure))
		w.publishFailure(ctx, job.Args)
		return cancel(failure)
	}

	outcome := result.Success
	if err := w.publish(ctx, handlerwrapper.Result{
		Topic:   events.MatchReconciled,
		Payload: ReconciledPayload(job.Args.ChatID, outcome),
	}); err != nil {
		// The write is committed, so a retry would only repeat the reply.
		logger.ErrorContext(ctx, "Failed to publish reconcile outcome", slog.Any("error", err))
	}
	return nil
}

// ReconciledPayload converts an outcome into its event payload.
func ReconciledPayload(chatID string, outcome *matchservice.ReconcileOutcome) events.MatchReconciledPayload {
	return events.MatchReconciledPayload{
		ChatID:    chatID,
		Link:      outcome.Link,
		Season:    outcome.Season,
		Status:    string(outcome.Status),
		Map:       outcome.Category.Map,
		TimeLimit: outcome.Category.TimeLimit,
		Inserted:  outcome.Inserted,
		Updated:   outcome.Updated,
		Skipped:   outcome.Skipped,
	}
}

func (w *RefreshWorker) publishFailure(ctx context.Context, args RefreshMatchJob) {
	err := w.publish(ctx, handlerwrapper.Result{
		Topic: events.MatchReconcileFailed,
		Payload: events.MatchReconcileFailedPayload{
			ChatID: args.ChatID,
			Link:   args.Link,
			Reason: events.GenericFailureReason,
		},
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish reconcile failure",
			observability.CorrelationAttr(ctx),
			slog.String("link", args.Link),
			slog.Any("error", err),
		)
	}
}

func (w *RefreshWorker) publish(ctx context.Context, r handlerwrapper.Result) error {
	if w.publisher == nil {
		return nil
	}
	return handlerwrapper.PublishResults(ctx, w.publisher, r)
}

func cancel(err error) error {
	return river.JobCancel(fmt.Errorf("%w: %w", ErrPermanent, err))
}

// permanentFetchError reports client errors other than rate limiting.
func permanentFetchError(err error) bool {
	var statusErr *scraper.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Status >= 400 && statusErr.Status < 500 && statusErr.Status != fasthttp.StatusTooManyRequests
}
