package matchqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

const metricsService = "river"

// QueueService schedules match refreshes.
type QueueService interface {
	// EnqueueRefresh queues a refresh for link unless one is already pending.
	EnqueueRefresh(ctx context.Context, link, chatID string) (EnqueueResult, error)
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Config controls the refresh queue.
type Config struct {
	DSN         string
	Workers     int
	MaxAttempts int
}

// uniqueStates leaves out completed jobs so a finished link can be refreshed again.
var uniqueStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

// Service runs the River client for refresh jobs.
type Service struct {
	client      *river.Client[pgx.Tx]
	pool        *pgxpool.Pool
	logger      *slog.Logger
	metrics     observability.OperationMetrics
	maxAttempts int
}

// NewService creates a River-based refresh queue. A nil worker creates an
// insert-only client, as used by the admin CLI.
func NewService(ctx context.Context, cfg Config, worker *RefreshWorker, logger *slog.Logger, metrics observability.OperationMetrics) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("operation", "new_match_queue_service"),
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", metricsService)

	ctxLogger.Info("Initializing match refresh queue")

	// River requires pgx, not database/sql
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	riverConfig := &river.Config{
		Logger:      logger,
		MaxAttempts: cfg.MaxAttempts,
	}
	if worker != nil {
		workers := river.NewWorkers()
		river.AddWorker(workers, worker)
		riverConfig.Workers = workers
		riverConfig.Queues = map[string]river.QueueConfig{
			QueueName: {MaxWorkers: cfg.Workers},
		}
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), riverConfig)
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", metricsService)
	metrics.RecordOperationDuration(ctx, "initialize_service", metricsService, time.Since(start))

	ctxLogger.Info("Match refresh queue initialized")
	return &Service{
		client:      riverClient,
		pool:        pool,
		logger:      ctxLogger,
		metrics:     metrics,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", metricsService)
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "start_service", metricsService)
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", metricsService)
	s.logger.Info("Match refresh queue started")
	return nil
}

// Stop stops the River client, waiting for running jobs, and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()

	s.metrics.RecordOperationAttempt(ctx, "stop_service", metricsService)
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", metricsService)
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", metricsService)
	s.logger.Info("Match refresh queue stopped")
	return nil
}

// Close releases the pool of a client that was never started.
func (s *Service) Close() {
	s.pool.Close()
}

// EnqueueRefresh queues a refresh for link. A refresh that is already
// pending or running is reported as a duplicate.
func (s *Service) EnqueueRefresh(ctx context.Context, link, chatID string) (EnqueueResult, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_refresh", metricsService)
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "enqueue_refresh", metricsService, time.Since(start))
	}()

	if err := matchdomain.ValidateLink(link); err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_refresh", metricsService)
		return EnqueueResult{}, err
	}

	res, err := s.client.Insert(ctx, RefreshMatchJob{Link: link, ChatID: chatID}, &river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: s.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByState: uniqueStates,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue refresh",
			observability.CorrelationAttr(ctx),
			slog.String("link", link),
			slog.Any("error", err),
		)
		s.metrics.RecordOperationFailure(ctx, "enqueue_refresh", metricsService)
		return EnqueueResult{}, fmt.Errorf("failed to enqueue refresh: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_refresh", metricsService)
	s.logger.InfoContext(ctx, "Refresh enqueued",
		observability.CorrelationAttr(ctx),
		slog.String("link", link),
		slog.Int64("job_id", res.Job.ID),
		slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return EnqueueResult{JobID: res.Job.ID, Duplicate: res.UniqueSkippedAsDuplicate}, nil
}
