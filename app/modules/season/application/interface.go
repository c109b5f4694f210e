package seasonservice

import (
	"context"
	"time"

	seasondomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// Service defines the season policy operations.
type Service interface {
	// SeasonOf returns the season a match created at createdAt belongs to.
	SeasonOf(ctx context.Context, createdAt time.Time) (int, error)

	// IsOpen reports whether the numbered season still accepts writes.
	IsOpen(ctx context.Context, number int) (bool, error)

	// CurrentSeason returns the highest season number.
	CurrentSeason(ctx context.Context) (int, error)

	// ListSeasons returns every season.
	ListSeasons(ctx context.Context) ([]seasondomain.Season, error)

	// ResolveForMatch resolves the season context of a match using the
	// caller's transaction handle.
	ResolveForMatch(ctx context.Context, db bun.IDB, createdAt time.Time) (seasondomain.SeasonInfo, error)

	// Rollover closes the current season at endAt and opens the next one.
	Rollover(ctx context.Context, endAt time.Time) (results.OperationResult[RolloverResult, error], error)
}

// RolloverResult describes a completed rollover.
type RolloverResult struct {
	ClosedSeason int
	ClosedAt     time.Time
	OpenedSeason int
}
