package matchservice

import (
	"context"
	"errors"
	"log/slog"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// Reconcile applies a scraped payload to the store in one transaction.
// A match whose season is frozen is left untouched and reported as
// OutcomeFrozen. Store failures come back as *StorageError.
func (s *MatchService) Reconcile(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[ReconcileOutcome, error], error) {
	return withTelemetry(s, ctx, "Reconcile", link, func(ctx context.Context) (results.OperationResult[ReconcileOutcome, error], error) {
		if err := matchdomain.ValidateLink(link); err != nil {
			return results.FailureResult[ReconcileOutcome, error](err), nil
		}
		if err := payload.Validate(); err != nil {
			return results.FailureResult[ReconcileOutcome, error](err), nil
		}

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ReconcileOutcome, error], error) {
			return s.reconcileTx(ctx, db, link, payload)
		})
		if err != nil {
			if !errors.Is(err, ErrStorage) {
				err = storageError("transaction", err)
			}
			return results.OperationResult[ReconcileOutcome, error]{}, err
		}
		return result, nil
	})
}

func (s *MatchService) reconcileTx(ctx context.Context, db bun.IDB, link string, payload matchdomain.RawMatch) (results.OperationResult[ReconcileOutcome, error], error) {
	match, err := s.findOrCreateMatch(ctx, db, link)
	if err != nil {
		return results.OperationResult[ReconcileOutcome, error]{}, err
	}

	season, err := s.seasons.ResolveForMatch(ctx, db, match.CreatedAt)
	if err != nil {
		return results.OperationResult[ReconcileOutcome, error]{}, storageError("ResolveForMatch", err)
	}

	category := payload.Category()
	outcome := &ReconcileOutcome{
		Link:     link,
		MatchID:  match.ID,
		Season:   season.Number,
		Category: category,
		Skipped:  []string{},
	}

	if !season.Open {
		outcome.Status = OutcomeFrozen
		s.logger.InfoContext(ctx, "Season frozen, reconcile skipped",
			observability.CorrelationAttr(ctx),
			slog.String("link", link),
			slog.Int("season", season.Number),
		)
		return results.SuccessResult[ReconcileOutcome, error](*outcome), nil
	}

	if err := s.repo.UpdateMatchCategory(ctx, db, match.ID, category); err != nil {
		return results.OperationResult[ReconcileOutcome, error]{}, storageError("UpdateMatchCategory", err)
	}

	for _, entry := range payload.NormalizedScores() {
		whitelisted, err := s.repo.IsNameWhitelisted(ctx, db, entry.Name)
		if err != nil {
			return results.OperationResult[ReconcileOutcome, error]{}, storageError("IsNameWhitelisted", err)
		}
		if !whitelisted {
			outcome.Skipped = append(outcome.Skipped, entry.Name)
			continue
		}

		player, err := s.findOrCreatePlayer(ctx, db, entry.Name, entry.DisplayName)
		if err != nil {
			return results.OperationResult[ReconcileOutcome, error]{}, err
		}

		existing, err := s.repo.FindResult(ctx, db, player.ID, match.ID)
		switch {
		case errors.Is(err, matchdb.ErrNotFound):
			outcome.Inserted++
			err = s.repo.UpsertResult(ctx, db, &matchdb.MatchResult{
				PlayerID:   player.ID,
				MatchID:    match.ID,
				TotalScore: entry.TotalScore,
			})
		case err != nil:
			return results.OperationResult[ReconcileOutcome, error]{}, storageError("FindResult", err)
		default:
			outcome.Updated++
			existing.TotalScore = entry.TotalScore
			err = s.repo.UpsertResult(ctx, db, existing)
		}
		if err != nil {
			return results.OperationResult[ReconcileOutcome, error]{}, storageError("UpsertResult", err)
		}
	}

	outcome.Status = OutcomeApplied
	s.logger.InfoContext(ctx, "Match reconciled",
		observability.CorrelationAttr(ctx),
		slog.String("link", link),
		slog.String("category", category.String()),
		slog.Int("inserted", outcome.Inserted),
		slog.Int("updated", outcome.Updated),
		slog.Int("skipped", len(outcome.Skipped)),
	)
	return results.SuccessResult[ReconcileOutcome, error](*outcome), nil
}

func (s *MatchService) findOrCreateMatch(ctx context.Context, db bun.IDB, link string) (*matchdb.Match, error) {
	match, err := s.repo.FindMatchByLink(ctx, db, link)
	if err == nil {
		return match, nil
	}
	if !errors.Is(err, matchdb.ErrNotFound) {
		return nil, storageError("FindMatchByLink", err)
	}
	match, err = s.repo.CreateEmptyMatch(ctx, db, link)
	if err != nil {
		return nil, storageError("CreateEmptyMatch", err)
	}
	return match, nil
}

func (s *MatchService) findOrCreatePlayer(ctx context.Context, db bun.IDB, name, displayName string) (*matchdb.Player, error) {
	player, err := s.repo.FindPlayerByName(ctx, db, name)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, matchdb.ErrNotFound) {
		return nil, storageError("FindPlayerByName", err)
	}
	player, err = s.repo.CreatePlayer(ctx, db, name, displayName)
	if err != nil {
		return nil, storageError("CreatePlayer", err)
	}
	return player, nil
}
