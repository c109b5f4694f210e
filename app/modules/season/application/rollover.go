package seasonservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	seasondomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/domain"
	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// Rollover closes the current season at endAt and opens the next one in a
// single transaction. A zero endAt means now.
func (s *SeasonService) Rollover(ctx context.Context, endAt time.Time) (results.OperationResult[RolloverResult, error], error) {
	if endAt.IsZero() {
		endAt = s.now()
	}
	endAt = endAt.UTC()

	rolloverTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[RolloverResult, error], error) {
		return s.rolloverLogic(ctx, db, endAt)
	}

	return withTelemetry(s, ctx, "Rollover", endAt.Format(time.RFC3339), func(ctx context.Context) (results.OperationResult[RolloverResult, error], error) {
		return runInTx(s, ctx, rolloverTx)
	})
}

func (s *SeasonService) rolloverLogic(ctx context.Context, db bun.IDB, endAt time.Time) (results.OperationResult[RolloverResult, error], error) {
	seasons, err := s.listSeasons(ctx, db)
	if err != nil {
		return results.OperationResult[RolloverResult, error]{}, fmt.Errorf("failed to list seasons: %w", err)
	}

	if err := seasondomain.ValidateRollover(seasons, endAt, s.now()); err != nil {
		return results.FailureResult[RolloverResult, error](fmt.Errorf("%w: %w", ErrRolloverRejected, err)), nil
	}

	current := seasondomain.CurrentSeason(seasons)
	if err := s.repo.CloseSeason(ctx, db, current, endAt); err != nil {
		if errors.Is(err, seasondb.ErrNoRowsAffected) {
			// Someone else closed it between our read and write.
			return results.FailureResult[RolloverResult, error](fmt.Errorf("%w: %w", ErrRolloverRejected, seasondomain.ErrNoOpenSeason)), nil
		}
		return results.OperationResult[RolloverResult, error]{}, fmt.Errorf("failed to close season %d: %w", current, err)
	}

	next, err := s.repo.CreateSeason(ctx, db, current+1)
	if err != nil {
		return results.OperationResult[RolloverResult, error]{}, fmt.Errorf("failed to open season %d: %w", current+1, err)
	}

	s.logger.InfoContext(ctx, "Season rolled over",
		slog.Int("closed_season", current),
		slog.Int("opened_season", next.Number),
		slog.Time("closed_at", endAt),
	)

	return results.SuccessResult[RolloverResult, error](RolloverResult{
		ClosedSeason: current,
		ClosedAt:     endAt,
		OpenedSeason: next.Number,
	}), nil
}
