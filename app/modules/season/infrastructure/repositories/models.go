package seasondb

import (
	"time"

	"github.com/uptrace/bun"

	seasondomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/domain"
)

// Season is a numbered competition period. A null EndedAt marks the open season.
type Season struct {
	bun.BaseModel `bun:"table:seasons,alias:sn"`

	Number    int        `bun:"number,pk"`
	EndedAt   *time.Time `bun:"ended_at,nullzero"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ToDomain converts the row into the policy type.
func (s Season) ToDomain() seasondomain.Season {
	return seasondomain.Season{Number: s.Number, EndedAt: s.EndedAt}
}

// ToDomainSeasons converts a slice of rows.
func ToDomainSeasons(rows []Season) []seasondomain.Season {
	out := make([]seasondomain.Season, len(rows))
	for i, r := range rows {
		out[i] = r.ToDomain()
	}
	return out
}
