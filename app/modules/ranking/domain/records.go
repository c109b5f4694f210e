package rankingdomain

import matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"

// RecordsPerCategory is how many high scores are kept per category.
const RecordsPerCategory = 3

// Record is one of the best raw scores of a category.
type Record struct {
	Rank   int
	Player string
	Score  int
	Link   string
}

// CategoryRecords groups the high scores of one category.
type CategoryRecords struct {
	Category matchdomain.Category
	Top      []Record
}

// RecordRow is a ranked high score as read from storage.
type RecordRow struct {
	Category matchdomain.Category
	Record   Record
}

// GroupRecords groups rows by category, preserving row order. Rows are
// expected ordered by category, then rank.
func GroupRecords(rows []RecordRow) []CategoryRecords {
	out := []CategoryRecords{}
	for _, row := range rows {
		if n := len(out); n > 0 && out[n-1].Category == row.Category {
			out[n-1].Top = append(out[n-1].Top, row.Record)
			continue
		}
		out = append(out, CategoryRecords{Category: row.Category, Top: []Record{row.Record}})
	}
	return out
}
