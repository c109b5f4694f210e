package rankingservice

import (
	"context"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
	"github.com/uptrace/bun"
)

// Service defines the ranking operations.
type Service interface {
	// Aggregate ranks every player of a category by total and average points.
	Aggregate(ctx context.Context, category matchdomain.Category) (*rankingdomain.Standings, error)

	// Records returns the best raw scores of every category.
	Records(ctx context.Context) ([]rankingdomain.CategoryRecords, error)
}

// MatchReader is the read side of the match store used for ranking.
type MatchReader interface {
	ListMatchesByCategory(ctx context.Context, db bun.IDB, category matchdomain.Category) ([]matchdb.Match, error)
	ListResultsForMatch(ctx context.Context, db bun.IDB, matchID int64) ([]matchdb.ResultRow, error)
	TopScoresByCategory(ctx context.Context, db bun.IDB, limit int) ([]matchdb.TopScoreRow, error)
}
