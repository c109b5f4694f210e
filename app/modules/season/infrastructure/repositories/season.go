package seasondb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new season repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// ListSeasons returns every season ordered by number.
func (r *Impl) ListSeasons(ctx context.Context, db bun.IDB) ([]Season, error) {
	db = r.resolveDB(db)
	var seasons []Season
	err := db.NewSelect().
		Model(&seasons).
		Order("number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("seasondb.ListSeasons: %w", err)
	}
	return seasons, nil
}

// CloseSeason sets ended_at on a season that is still open.
func (r *Impl) CloseSeason(ctx context.Context, db bun.IDB, number int, endedAt time.Time) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Season)(nil)).
		Set("ended_at = ?", endedAt).
		Where("number = ?", number).
		Where("ended_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasondb.CloseSeason: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("seasondb.CloseSeason: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// CreateSeason inserts a new open season.
func (r *Impl) CreateSeason(ctx context.Context, db bun.IDB, number int) (*Season, error) {
	db = r.resolveDB(db)
	season := &Season{Number: number, CreatedAt: time.Now().UTC()}
	if _, err := db.NewInsert().Model(season).Exec(ctx); err != nil {
		return nil, fmt.Errorf("seasondb.CreateSeason: %w", err)
	}
	return season, nil
}
