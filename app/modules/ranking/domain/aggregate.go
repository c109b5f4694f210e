package rankingdomain

import (
	"cmp"
	"slices"
)

// MatchScores holds the raw scores of one match in a category.
type MatchScores struct {
	MatchID int64
	Link    string
	Scores  []ScoreEntry
}

// Standing is one player's line in a ranked list.
type Standing struct {
	Rank        int
	PlayerID    int64
	Name        string
	DisplayName string
	Points      float64
	Matches     int
}

// Display returns the points formatted for chat output.
func (s Standing) Display() string {
	return FormatPoints(s.Points)
}

// Label returns the display name, falling back to the identity.
func (s Standing) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// RawTotal is a player's summed raw score across a category.
type RawTotal struct {
	Rank        int
	Name        string
	DisplayName string
	Score       int
	Matches     int
}

// DegenerateMatch records a match scored with a boundary fallback.
type DegenerateMatch struct {
	MatchID int64
	Link    string
	Kind    Degeneracy
}

// Standings is the aggregate of every match in a category.
type Standings struct {
	Matches    int
	Totals     []Standing
	Averages   []Standing
	RawTotals  []RawTotal
	Degenerate []DegenerateMatch
}

type playerTally struct {
	playerID    int64
	name        string
	displayName string
	points      float64
	score       int
	matches     int
}

// Aggregate scores every match and ranks players by total and by average
// points. Averages divide by the matches a player appeared in. Matches
// without results are skipped.
func Aggregate(matches []MatchScores) Standings {
	tallies := map[string]*playerTally{}
	out := Standings{
		Totals:     []Standing{},
		Averages:   []Standing{},
		RawTotals:  []RawTotal{},
		Degenerate: []DegenerateMatch{},
	}

	for _, m := range matches {
		if len(m.Scores) == 0 {
			continue
		}
		out.Matches++

		mp := PointsForMatch(m.Scores)
		if mp.Degenerate != DegenerateNone {
			out.Degenerate = append(out.Degenerate, DegenerateMatch{MatchID: m.MatchID, Link: m.Link, Kind: mp.Degenerate})
		}
		for _, p := range mp.Points {
			t, ok := tallies[p.Name]
			if !ok {
				t = &playerTally{playerID: p.PlayerID, name: p.Name, displayName: p.DisplayName}
				tallies[p.Name] = t
			}
			t.points += p.Points
			t.score += p.Score
			t.matches++
		}
	}

	for _, t := range tallies {
		total := Standing{PlayerID: t.playerID, Name: t.name, DisplayName: t.displayName, Points: t.points, Matches: t.matches}
		average := total
		average.Points = t.points / float64(t.matches)
		out.Totals = append(out.Totals, total)
		out.Averages = append(out.Averages, average)
		out.RawTotals = append(out.RawTotals, RawTotal{Name: t.name, DisplayName: t.displayName, Score: t.score, Matches: t.matches})
	}

	rankStandings(out.Totals)
	rankStandings(out.Averages)

	slices.SortFunc(out.RawTotals, func(a, b RawTotal) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Name, b.Name))
	})
	for i := range out.RawTotals {
		out.RawTotals[i].Rank = i + 1
	}
	return out
}

func rankStandings(list []Standing) {
	slices.SortFunc(list, func(a, b Standing) int {
		return cmp.Or(cmp.Compare(b.Points, a.Points), cmp.Compare(a.Name, b.Name))
	})
	for i := range list {
		list[i].Rank = i + 1
	}
}
