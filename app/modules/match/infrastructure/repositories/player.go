package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// FindPlayerByName looks a player up by normalized name.
func (r *Impl) FindPlayerByName(ctx context.Context, db bun.IDB, name string) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	err := db.NewSelect().
		Model(player).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("matchdb.FindPlayerByName: %w", err)
	}
	return player, nil
}

// CreatePlayer inserts a player. A concurrent insert of the same name turns
// into a no-op update so the existing row comes back.
func (r *Impl) CreatePlayer(ctx context.Context, db bun.IDB, name, displayName string) (*Player, error) {
	db = r.resolveDB(db)
	player := &Player{Name: name, DisplayName: displayName}
	_, err := db.NewInsert().
		Model(player).
		On("CONFLICT (name) DO UPDATE").
		Set("name = EXCLUDED.name").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchdb.CreatePlayer: %w", err)
	}
	return player, nil
}
