package matchmigrations

import (
	"context"
	"fmt"

	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating match tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			models := []struct {
				name  string
				model interface{}
			}{
				{"players", (*matchdb.Player)(nil)},
				{"matches", (*matchdb.Match)(nil)},
				{"whitelist", (*matchdb.WhitelistEntry)(nil)},
			}
			for _, m := range models {
				if _, err := tx.NewCreateTable().Model(m.model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("create %s: %w", m.name, err)
				}
			}

			if _, err := tx.NewCreateTable().
				Model((*matchdb.MatchResult)(nil)).
				IfNotExists().
				ForeignKey(`("player_id") REFERENCES "players" ("id") ON DELETE CASCADE`).
				ForeignKey(`("match_id") REFERENCES "matches" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return fmt.Errorf("create match_results: %w", err)
			}

			statements := []string{
				"ALTER TABLE matches ADD CONSTRAINT matches_time_limit_positive CHECK (time_limit IS NULL OR time_limit > 0)",
				"ALTER TABLE match_results ADD CONSTRAINT match_results_score_non_negative CHECK (total_score >= 0)",
				"CREATE INDEX IF NOT EXISTS idx_matches_category ON matches (map, time_limit)",
				"CREATE INDEX IF NOT EXISTS idx_match_results_match_id ON match_results (match_id)",
			}
			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("exec %q: %w", stmt, err)
				}
			}

			fmt.Println("Match tables created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping match tables...")
		for _, table := range []string{"match_results", "whitelist", "matches", "players"} {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		return nil
	})
}
