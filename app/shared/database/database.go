// Package database opens the Postgres handle and runs schema migrations for
// every module.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	matchmigrations "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories/migrations"
	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	seasonmigrations "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories/migrations"
)

// Module pairs a module name with its migrations.
type Module struct {
	Name       string
	Migrations *migrate.Migrations
}

// Modules lists module migrations in the order they must apply.
func Modules() []Module {
	return []Module{
		{Name: "season", Migrations: seasonmigrations.Migrations},
		{Name: "match", Migrations: matchmigrations.Migrations},
	}
}

// Open connects to Postgres and registers the models.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel(
		(*seasondb.Season)(nil),
		(*matchdb.Player)(nil),
		(*matchdb.Match)(nil),
		(*matchdb.MatchResult)(nil),
		(*matchdb.WhitelistEntry)(nil),
	)
	return db, nil
}

// Migrate initializes the shared migration tables and applies every module's
// pending migrations.
func Migrate(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	modules := Modules()
	if err := migrate.NewMigrator(db, modules[0].Migrations).Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	for _, mod := range modules {
		group, err := migrate.NewMigrator(db, mod.Migrations).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", mod.Name, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", slog.String("module", mod.Name))
		} else {
			logger.InfoContext(ctx, "Migrated module", slog.String("module", mod.Name), slog.String("group", group.String()))
		}
	}
	return nil
}

// MigrateRiver applies the River queue schema.
func MigrateRiver(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}
