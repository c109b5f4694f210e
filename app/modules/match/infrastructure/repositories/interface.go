package matchdb

import (
	"context"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	"github.com/uptrace/bun"
)

// Repository defines the contract for player, match, result and whitelist
// persistence. All methods accept a bun.IDB so callers can thread a transaction;
// a nil db uses the repository's default connection.
type Repository interface {
	// FindPlayerByName looks a player up by normalized name.
	FindPlayerByName(ctx context.Context, db bun.IDB, name string) (*Player, error)

	// CreatePlayer inserts a player, returning the existing row if the name is taken.
	CreatePlayer(ctx context.Context, db bun.IDB, name, displayName string) (*Player, error)

	// FindMatchByLink looks a match up by link token.
	FindMatchByLink(ctx context.Context, db bun.IDB, link string) (*Match, error)

	// CreateEmptyMatch inserts a match with no category, returning the existing row if the link is taken.
	CreateEmptyMatch(ctx context.Context, db bun.IDB, link string) (*Match, error)

	// UpdateMatchCategory sets map and time limit on a match.
	UpdateMatchCategory(ctx context.Context, db bun.IDB, matchID int64, category matchdomain.Category) error

	// FindResult returns the result row for a (player, match) pair.
	FindResult(ctx context.Context, db bun.IDB, playerID, matchID int64) (*MatchResult, error)

	// UpsertResult inserts a result or overwrites the score of the existing one.
	UpsertResult(ctx context.Context, db bun.IDB, result *MatchResult) error

	// ListMatchesByCategory returns every match in a category, oldest first.
	ListMatchesByCategory(ctx context.Context, db bun.IDB, category matchdomain.Category) ([]Match, error)

	// ListResultsForMatch returns a match's results ordered by score descending.
	ListResultsForMatch(ctx context.Context, db bun.IDB, matchID int64) ([]ResultRow, error)

	// IsNameWhitelisted reports whether a normalized name is on the whitelist.
	IsNameWhitelisted(ctx context.Context, db bun.IDB, name string) (bool, error)

	// AddToWhitelist adds a normalized name; it reports false if the name was already present.
	AddToWhitelist(ctx context.Context, db bun.IDB, name string) (bool, error)

	// ListWhitelist returns every whitelisted name.
	ListWhitelist(ctx context.Context, db bun.IDB) ([]string, error)

	// ListLinks returns every known match link.
	ListLinks(ctx context.Context, db bun.IDB) ([]string, error)

	// ListCategories returns each category with its match count.
	ListCategories(ctx context.Context, db bun.IDB) ([]CategoryRow, error)

	// TopScoresByCategory returns the ranked best score of each player per category.
	TopScoresByCategory(ctx context.Context, db bun.IDB, limit int) ([]TopScoreRow, error)
}
