package matchservice

import (
	"context"
	"time"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	seasondomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// Service defines the match reconciliation and whitelist operations.
type Service interface {
	// Reconcile maps a scraped payload onto player, match and result rows.
	Reconcile(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[ReconcileOutcome, error], error)

	// AddToWhitelist whitelists a name and creates its player row.
	AddToWhitelist(ctx context.Context, name string) (results.OperationResult[WhitelistResult, error], error)

	// ListWhitelist returns every whitelisted name.
	ListWhitelist(ctx context.Context) ([]string, error)

	// ListLinks returns every known match link.
	ListLinks(ctx context.Context) ([]string, error)

	// ListCategories returns every category with its match count.
	ListCategories(ctx context.Context) ([]matchdb.CategoryRow, error)

	// ListMatches returns the matches of one category.
	ListMatches(ctx context.Context, category matchdomain.Category) ([]matchdb.Match, error)
}

// SeasonResolver resolves the season of a match on the caller's handle.
type SeasonResolver interface {
	ResolveForMatch(ctx context.Context, db bun.IDB, createdAt time.Time) (seasondomain.SeasonInfo, error)
}

// OutcomeStatus distinguishes an applied reconciliation from a frozen no-op.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeFrozen  OutcomeStatus = "frozen"
)

// ReconcileOutcome describes what a reconciliation did.
type ReconcileOutcome struct {
	Link     string
	MatchID  int64
	Season   int
	Status   OutcomeStatus
	Category matchdomain.Category
	Inserted int
	Updated  int
	Skipped  []string
}

// WhitelistResult describes a whitelist addition.
type WhitelistResult struct {
	Name     string
	Added    bool
	PlayerID int64
}
