package matchdb

import (
	"time"

	"github.com/uptrace/bun"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
)

// Player is a whitelisted participant. Name holds the normalized identity.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,type:varchar(60),unique,notnull"`
	DisplayName string    `bun:"display_name,type:varchar(60),notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Match is one challenge instance keyed by its link token. Map and TimeLimit
// stay null until the first successful scrape.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Link      string    `bun:"link,type:varchar(32),unique,notnull"`
	Map       *string   `bun:"map,type:varchar(50)"`
	TimeLimit *int      `bun:"time_limit"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// HasCategory reports whether map and time limit are known.
func (m *Match) HasCategory() bool {
	return m.Map != nil && m.TimeLimit != nil
}

// Category returns the match category, or false for an empty match.
func (m *Match) Category() (matchdomain.Category, bool) {
	if !m.HasCategory() {
		return matchdomain.Category{}, false
	}
	return matchdomain.Category{Map: *m.Map, TimeLimit: *m.TimeLimit}, true
}

// MatchResult is a player's total score in one match.
type MatchResult struct {
	bun.BaseModel `bun:"table:match_results,alias:mr"`

	ID         int64     `bun:"id,pk,autoincrement"`
	PlayerID   int64     `bun:"player_id,notnull,unique:match_results_player_match"`
	MatchID    int64     `bun:"match_id,notnull,unique:match_results_player_match"`
	TotalScore int       `bun:"total_score,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// WhitelistEntry is a normalized player name eligible for persistence.
type WhitelistEntry struct {
	bun.BaseModel `bun:"table:whitelist,alias:wl"`

	Name    string    `bun:"name,pk,type:varchar(60)"`
	AddedAt time.Time `bun:"added_at,nullzero,notnull,default:current_timestamp"`
}

// ResultRow is a match result joined with its player.
type ResultRow struct {
	PlayerID    int64  `bun:"player_id"`
	PlayerName  string `bun:"player_name"`
	DisplayName string `bun:"display_name"`
	TotalScore  int    `bun:"total_score"`
}

// CategoryRow summarizes one category.
type CategoryRow struct {
	Map       string `bun:"map"`
	TimeLimit int    `bun:"time_limit"`
	Matches   int    `bun:"matches"`
}

// Category returns the domain category.
func (c CategoryRow) Category() matchdomain.Category {
	return matchdomain.Category{Map: c.Map, TimeLimit: c.TimeLimit}
}

// TopScoreRow is one of the best raw scores within a category.
type TopScoreRow struct {
	Map         string `bun:"map"`
	TimeLimit   int    `bun:"time_limit"`
	Rank        int    `bun:"rank"`
	PlayerName  string `bun:"player_name"`
	DisplayName string `bun:"display_name"`
	TotalScore  int    `bun:"total_score"`
	Link        string `bun:"link"`
}
