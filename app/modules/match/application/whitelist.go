package matchservice

import (
	"context"
	"strings"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// AddToWhitelist whitelists a name and creates its player row in the same
// transaction. Adding a name twice is not an error; Added reports false.
func (s *MatchService) AddToWhitelist(ctx context.Context, name string) (results.OperationResult[WhitelistResult, error], error) {
	normalized := matchdomain.NormalizeName(name)
	return withTelemetry(s, ctx, "AddToWhitelist", normalized, func(ctx context.Context) (results.OperationResult[WhitelistResult, error], error) {
		if normalized == "" {
			return results.FailureResult[WhitelistResult, error](&matchdomain.ValidationError{Field: "name", Reason: "is required"}), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[WhitelistResult, error], error) {
			added, err := s.repo.AddToWhitelist(ctx, db, normalized)
			if err != nil {
				return results.OperationResult[WhitelistResult, error]{}, storageError("AddToWhitelist", err)
			}
			player, err := s.findOrCreatePlayer(ctx, db, normalized, strings.TrimSpace(name))
			if err != nil {
				return results.OperationResult[WhitelistResult, error]{}, err
			}
			return results.SuccessResult[WhitelistResult, error](WhitelistResult{
				Name:     normalized,
				Added:    added,
				PlayerID: player.ID,
			}), nil
		})
	})
}

