package seasonmigrations

import (
	"context"
	"fmt"

	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating seasons table...")

		if _, err := db.NewCreateTable().Model((*seasondb.Season)(nil)).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create seasons: %w", err)
		}

		// At most one open season.
		_, err := db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS idx_seasons_single_open ON seasons ((ended_at IS NULL)) WHERE ended_at IS NULL").Exec(ctx)
		if err != nil {
			return fmt.Errorf("create single open season index: %w", err)
		}

		_, err = db.NewRaw("INSERT INTO seasons (number, ended_at) VALUES (1, NULL) ON CONFLICT (number) DO NOTHING").Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert first season: %w", err)
		}

		fmt.Println("Seasons table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping seasons table...")
		if _, err := db.NewDropTable().Model((*seasondb.Season)(nil)).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop seasons: %w", err)
		}
		return nil
	})
}
