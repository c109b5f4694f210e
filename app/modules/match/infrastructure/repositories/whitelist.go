package matchdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// IsNameWhitelisted reports whether a normalized name is on the whitelist.
func (r *Impl) IsNameWhitelisted(ctx context.Context, db bun.IDB, name string) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*WhitelistEntry)(nil)).
		Where("name = ?", name).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("matchdb.IsNameWhitelisted: %w", err)
	}
	return exists, nil
}

// AddToWhitelist adds a normalized name; it reports false if the name was
// already present.
func (r *Impl) AddToWhitelist(ctx context.Context, db bun.IDB, name string) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(&WhitelistEntry{Name: name}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("matchdb.AddToWhitelist: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("matchdb.AddToWhitelist: %w", err)
	}
	return rows > 0, nil
}

// ListWhitelist returns every whitelisted name in alphabetical order.
func (r *Impl) ListWhitelist(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	var names []string
	err := db.NewSelect().
		Model((*WhitelistEntry)(nil)).
		Column("name").
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("matchdb.ListWhitelist: %w", err)
	}
	return names, nil
}
