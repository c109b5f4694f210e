package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	"github.com/uptrace/bun"
)

// FindMatchByLink looks a match up by link token.
func (r *Impl) FindMatchByLink(ctx context.Context, db bun.IDB, link string) (*Match, error) {
	db = r.resolveDB(db)
	match := new(Match)
	err := db.NewSelect().
		Model(match).
		Where("link = ?", link).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("matchdb.FindMatchByLink: %w", err)
	}
	return match, nil
}

// CreateEmptyMatch inserts a match without a category. A concurrent insert of
// the same link returns the existing row unchanged.
func (r *Impl) CreateEmptyMatch(ctx context.Context, db bun.IDB, link string) (*Match, error) {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	match := &Match{Link: link, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().
		Model(match).
		On("CONFLICT (link) DO UPDATE").
		Set("link = EXCLUDED.link").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchdb.CreateEmptyMatch: %w", err)
	}
	return match, nil
}

// UpdateMatchCategory sets map and time limit on a match.
func (r *Impl) UpdateMatchCategory(ctx context.Context, db bun.IDB, matchID int64, category matchdomain.Category) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Match)(nil)).
		Set("map = ?", category.Map).
		Set("time_limit = ?", category.TimeLimit).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", matchID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchdb.UpdateMatchCategory: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("matchdb.UpdateMatchCategory: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// ListMatchesByCategory returns every match in a category, oldest first.
func (r *Impl) ListMatchesByCategory(ctx context.Context, db bun.IDB, category matchdomain.Category) ([]Match, error) {
	db = r.resolveDB(db)
	var matches []Match
	err := db.NewSelect().
		Model(&matches).
		Where("map = ?", category.Map).
		Where("time_limit = ?", category.TimeLimit).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchdb.ListMatchesByCategory: %w", err)
	}
	return matches, nil
}

// ListLinks returns every known match link, oldest first.
func (r *Impl) ListLinks(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	var links []string
	err := db.NewSelect().
		Model((*Match)(nil)).
		Column("link").
		Order("created_at ASC", "id ASC").
		Scan(ctx, &links)
	if err != nil {
		return nil, fmt.Errorf("matchdb.ListLinks: %w", err)
	}
	return links, nil
}

// ListCategories returns each category with its match count.
func (r *Impl) ListCategories(ctx context.Context, db bun.IDB) ([]CategoryRow, error) {
	db = r.resolveDB(db)
	var rows []CategoryRow
	err := db.NewSelect().
		Model((*Match)(nil)).
		ColumnExpr("m.map AS map").
		ColumnExpr("m.time_limit AS time_limit").
		ColumnExpr("COUNT(*) AS matches").
		Where("m.map IS NOT NULL").
		Where("m.time_limit IS NOT NULL").
		GroupExpr("m.map, m.time_limit").
		OrderExpr("m.map ASC, m.time_limit ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("matchdb.ListCategories: %w", err)
	}
	return rows, nil
}
