package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// FindResult returns the result row for a (player, match) pair.
func (r *Impl) FindResult(ctx context.Context, db bun.IDB, playerID, matchID int64) (*MatchResult, error) {
	db = r.resolveDB(db)
	result := new(MatchResult)
	err := db.NewSelect().
		Model(result).
		Where("player_id = ?", playerID).
		Where("match_id = ?", matchID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("matchdb.FindResult: %w", err)
	}
	return result, nil
}

// UpsertResult inserts a result or overwrites the score of the existing row
// for the same (player, match) pair.
func (r *Impl) UpsertResult(ctx context.Context, db bun.IDB, result *MatchResult) error {
	db = r.resolveDB(db)
	result.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(result).
		On("CONFLICT (player_id, match_id) DO UPDATE").
		Set("total_score = EXCLUDED.total_score").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchdb.UpsertResult: %w", err)
	}
	return nil
}

// ListResultsForMatch returns a match's results ordered by score descending,
// ties by player name.
func (r *Impl) ListResultsForMatch(ctx context.Context, db bun.IDB, matchID int64) ([]ResultRow, error) {
	db = r.resolveDB(db)
	var rows []ResultRow
	err := db.NewSelect().
		Model((*MatchResult)(nil)).
		ColumnExpr("mr.player_id AS player_id").
		ColumnExpr("p.name AS player_name").
		ColumnExpr("p.display_name AS display_name").
		ColumnExpr("mr.total_score AS total_score").
		Join("JOIN players AS p ON p.id = mr.player_id").
		Where("mr.match_id = ?", matchID).
		OrderExpr("mr.total_score DESC, p.name ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("matchdb.ListResultsForMatch: %w", err)
	}
	return rows, nil
}

// topScoresQuery keeps each player's best score per category, so the ranked
// slots go to distinct players. Link is the match of that best score.
const topScoresQuery = `
SELECT map, time_limit, rank, player_name, display_name, total_score, link
FROM (
	SELECT best.map, best.time_limit, best.player_name, best.display_name, best.total_score, best.link,
		ROW_NUMBER() OVER (PARTITION BY best.map, best.time_limit ORDER BY best.total_score DESC, best.player_name ASC) AS rank
	FROM (
		SELECT DISTINCT ON (m.map, m.time_limit, p.id)
			m.map, m.time_limit, p.name AS player_name, p.display_name, mr.total_score, m.link
		FROM match_results AS mr
		JOIN matches AS m ON m.id = mr.match_id
		JOIN players AS p ON p.id = mr.player_id
		WHERE m.map IS NOT NULL AND m.time_limit IS NOT NULL
		ORDER BY m.map, m.time_limit, p.id, mr.total_score DESC, m.id ASC
	) AS best
) AS ranked
WHERE rank <= ?
ORDER BY map ASC, time_limit ASC, rank ASC`

// TopScoresByCategory returns the ranked best score of each player per category.
func (r *Impl) TopScoresByCategory(ctx context.Context, db bun.IDB, limit int) ([]TopScoreRow, error) {
	db = r.resolveDB(db)
	var rows []TopScoreRow
	if err := db.NewRaw(topScoresQuery, limit).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("matchdb.TopScoresByCategory: %w", err)
	}
	return rows, nil
}
