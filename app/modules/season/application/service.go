package seasonservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	seasondomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/domain"
	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "SeasonService"

// SeasonService implements the Service interface.
type SeasonService struct {
	repo    seasondb.Repository
	logger  *slog.Logger
	metrics observability.OperationMetrics
	tracer  trace.Tracer
	db      *bun.DB
	grace   time.Duration
	now     func() time.Time
}

// NewSeasonService creates a new SeasonService. A non-positive grace falls
// back to the default window.
func NewSeasonService(
	repo seasondb.Repository,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	grace time.Duration,
) *SeasonService {
	if logger == nil {
		logger = slog.Default()
	}
	if grace < 0 {
		grace = seasondomain.DefaultGraceWindow
	}
	return &SeasonService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
		grace:   grace,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GraceWindow returns the configured freeze grace window.
func (s *SeasonService) GraceWindow() time.Duration {
	return s.grace
}

func (s *SeasonService) listSeasons(ctx context.Context, db bun.IDB) ([]seasondomain.Season, error) {
	rows, err := s.repo.ListSeasons(ctx, db)
	if err != nil {
		return nil, err
	}
	return seasondb.ToDomainSeasons(rows), nil
}

// ListSeasons returns every season.
func (s *SeasonService) ListSeasons(ctx context.Context) ([]seasondomain.Season, error) {
	result, err := withTelemetry(s, ctx, "ListSeasons", "all", func(ctx context.Context) (results.OperationResult[[]seasondomain.Season, error], error) {
		seasons, err := s.listSeasons(ctx, nil)
		if err != nil {
			return results.OperationResult[[]seasondomain.Season, error]{}, err
		}
		return results.SuccessResult[[]seasondomain.Season, error](seasons), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

// SeasonOf returns the season a match created at createdAt belongs to.
func (s *SeasonService) SeasonOf(ctx context.Context, createdAt time.Time) (int, error) {
	seasons, err := s.ListSeasons(ctx)
	if err != nil {
		return 0, err
	}
	return seasondomain.SeasonOf(seasons, createdAt), nil
}

// IsOpen reports whether the numbered season still accepts writes.
func (s *SeasonService) IsOpen(ctx context.Context, number int) (bool, error) {
	seasons, err := s.ListSeasons(ctx)
	if err != nil {
		return false, err
	}
	return seasondomain.IsNumberOpen(seasons, number, s.now(), s.grace), nil
}

// CurrentSeason returns the highest season number.
func (s *SeasonService) CurrentSeason(ctx context.Context) (int, error) {
	seasons, err := s.ListSeasons(ctx)
	if err != nil {
		return 0, err
	}
	return seasondomain.CurrentSeason(seasons), nil
}

// ResolveForMatch runs on the caller's handle without its own telemetry span
// wrapper so it can participate in the caller's transaction.
func (s *SeasonService) ResolveForMatch(ctx context.Context, db bun.IDB, createdAt time.Time) (seasondomain.SeasonInfo, error) {
	seasons, err := s.listSeasons(ctx, db)
	if err != nil {
		return seasondomain.SeasonInfo{}, fmt.Errorf("resolve season: %w", err)
	}
	return seasondomain.ResolveSeasonForMatch(seasons, createdAt, s.now(), s.grace), nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SeasonService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.DebugContext(ctx, "Operation triggered", observability.CorrelationAttr(ctx), slog.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.CorrelationAttr(ctx),
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			observability.CorrelationAttr(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("error", wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			observability.CorrelationAttr(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *SeasonService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
