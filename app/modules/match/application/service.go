package matchservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "MatchService"

// MatchService implements the Service interface.
type MatchService struct {
	repo    matchdb.Repository
	seasons SeasonResolver
	logger  *slog.Logger
	metrics observability.OperationMetrics
	tracer  trace.Tracer
	db      *bun.DB
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	repo matchdb.Repository,
	seasons SeasonResolver,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{
		repo:    repo,
		seasons: seasons,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
	}
}

// ListLinks returns every known match link.
func (s *MatchService) ListLinks(ctx context.Context) ([]string, error) {
	return query(s, ctx, "ListLinks", "all", func(ctx context.Context) ([]string, error) {
		return s.repo.ListLinks(ctx, nil)
	})
}

// ListCategories returns every category with its match count.
func (s *MatchService) ListCategories(ctx context.Context) ([]matchdb.CategoryRow, error) {
	return query(s, ctx, "ListCategories", "all", func(ctx context.Context) ([]matchdb.CategoryRow, error) {
		return s.repo.ListCategories(ctx, nil)
	})
}

// ListMatches returns the matches of one category.
func (s *MatchService) ListMatches(ctx context.Context, category matchdomain.Category) ([]matchdb.Match, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	return query(s, ctx, "ListMatches", category.String(), func(ctx context.Context) ([]matchdb.Match, error) {
		return s.repo.ListMatchesByCategory(ctx, nil, category)
	})
}

// ListWhitelist returns every whitelisted name.
func (s *MatchService) ListWhitelist(ctx context.Context) ([]string, error) {
	return query(s, ctx, "ListWhitelist", "all", func(ctx context.Context) ([]string, error) {
		return s.repo.ListWhitelist(ctx, nil)
	})
}

// query runs a read-only repository call under telemetry, outside a transaction.
func query[T any](s *MatchService, ctx context.Context, operationName, identifier string, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[T, error], error) {
		v, err := fn(ctx)
		if err != nil {
			return results.OperationResult[T, error]{}, storageError(operationName, err)
		}
		return results.SuccessResult[T, error](v), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return *result.Success, nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *MatchService,
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

	s.logger.InfoContext(ctx, "Operation triggered", observability.CorrelationAttr(ctx), slog.String("operation", operationName))

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

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			observability.CorrelationAttr(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *MatchService,
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
