package seasondb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository defines the contract for season persistence.
// All methods accept a bun.IDB so callers can run them inside a transaction.
type Repository interface {
	// ListSeasons returns every season ordered by number.
	ListSeasons(ctx context.Context, db bun.IDB) ([]Season, error)

	// CloseSeason sets the end timestamp of an open season.
	CloseSeason(ctx context.Context, db bun.IDB, number int, endedAt time.Time) error

	// CreateSeason inserts a new open season.
	CreateSeason(ctx context.Context, db bun.IDB, number int) (*Season, error)
}
