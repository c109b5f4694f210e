package rankingservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

const (
	serviceName = "RankingService"

	// resultLoadConcurrency bounds parallel result queries per aggregation.
	resultLoadConcurrency = 4
)

// RankingService implements the Service interface. It only reads, so it runs
// outside transactions and may observe a match mid-reconciliation.
type RankingService struct {
	reader  MatchReader
	logger  *slog.Logger
	metrics observability.OperationMetrics
	tracer  trace.Tracer
}

// NewRankingService creates a new RankingService.
func NewRankingService(
	reader MatchReader,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *RankingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankingService{
		reader:  reader,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// Aggregate ranks every player of a category by total and average points.
// An empty category yields empty lists.
func (s *RankingService) Aggregate(ctx context.Context, category matchdomain.Category) (*rankingdomain.Standings, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}

	var standings rankingdomain.Standings
	err := s.observe(ctx, "Aggregate", category.String(), func(ctx context.Context) error {
		matches, err := s.reader.ListMatchesByCategory(ctx, nil, category)
		if err != nil {
			return err
		}

		scored := make([]rankingdomain.MatchScores, len(matches))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(resultLoadConcurrency)
		for i, m := range matches {
			g.Go(func() error {
				rows, err := s.reader.ListResultsForMatch(gctx, nil, m.ID)
				if err != nil {
					return err
				}
				entries := make([]rankingdomain.ScoreEntry, len(rows))
				for j, r := range rows {
					entries[j] = rankingdomain.ScoreEntry{
						PlayerID:    r.PlayerID,
						Name:        r.PlayerName,
						DisplayName: r.DisplayName,
						Score:       r.TotalScore,
					}
				}
				scored[i] = rankingdomain.MatchScores{MatchID: m.ID, Link: m.Link, Scores: entries}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		standings = rankingdomain.Aggregate(scored)
		for _, d := range standings.Degenerate {
			s.logger.WarnContext(ctx, "Degenerate match scored with fallback",
				observability.CorrelationAttr(ctx),
				slog.String("category", category.String()),
				slog.String("link", d.Link),
				slog.String("kind", string(d.Kind)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &standings, nil
}

// Records returns the best raw scores of every category.
func (s *RankingService) Records(ctx context.Context) ([]rankingdomain.CategoryRecords, error) {
	var records []rankingdomain.CategoryRecords
	err := s.observe(ctx, "Records", "all", func(ctx context.Context) error {
		rows, err := s.reader.TopScoresByCategory(ctx, nil, rankingdomain.RecordsPerCategory)
		if err != nil {
			return err
		}
		recordRows := make([]rankingdomain.RecordRow, len(rows))
		for i, r := range rows {
			player := r.DisplayName
			if player == "" {
				player = r.PlayerName
			}
			recordRows[i] = rankingdomain.RecordRow{
				Category: matchdomain.Category{Map: r.Map, TimeLimit: r.TimeLimit},
				Record:   rankingdomain.Record{Rank: r.Rank, Player: player, Score: r.TotalScore, Link: r.Link},
			}
		}
		records = rankingdomain.GroupRecords(recordRows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// observe wraps a read with tracing, metrics and panic recovery.
func (s *RankingService) observe(ctx context.Context, operationName, identifier string, fn func(ctx context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("identifier", identifier),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Operation failed with error",
				observability.CorrelationAttr(ctx),
				slog.String("operation", operationName),
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			return
		}
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}()

	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", operationName, err)
	}
	return nil
}
