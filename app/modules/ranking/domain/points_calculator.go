// Package rankingdomain computes match points and category standings.
package rankingdomain

import (
	"cmp"
	"fmt"
	"slices"
)

// podiumSize is the number of placements that earn a bonus.
const podiumSize = 3

// Degeneracy flags a match whose points fell back to a defined boundary value.
type Degeneracy string

const (
	DegenerateNone Degeneracy = ""
	// DegenerateZeroMaxScore means the best score was not positive; every
	// player gets zero points.
	DegenerateZeroMaxScore Degeneracy = "zero_max_score"
	// DegenerateClampedBonus means the placement bonus would have been
	// negative (a single player) and was clamped to zero.
	DegenerateClampedBonus Degeneracy = "clamped_bonus"
)

// ScoreEntry is a player's raw score in one match. Name is the normalized
// identity; DisplayName is only carried through for output.
type ScoreEntry struct {
	PlayerID    int64
	Name        string
	DisplayName string
	Score       int
}

// PlayerPoints is a player's placement and points in one match.
type PlayerPoints struct {
	PlayerID    int64
	Name        string
	DisplayName string
	Score       int
	Rank        int
	Points      float64
}

// MatchPoints is the outcome of scoring one match.
type MatchPoints struct {
	Points     []PlayerPoints
	Degenerate Degeneracy
}

// SortScores orders entries by raw score descending, ties by name ascending.
func SortScores(scores []ScoreEntry) []ScoreEntry {
	sorted := make([]ScoreEntry, len(scores))
	copy(sorted, scores)
	slices.SortStableFunc(sorted, func(a, b ScoreEntry) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Name, b.Name))
	})
	return sorted
}

// MaxBonus returns the first-place bonus for a match of n players, clamped
// at zero. The second return reports whether clamping happened.
func MaxBonus(n int) (float64, bool) {
	if n <= 0 {
		return 0, false
	}
	bonus := 0.5 - 1/float64(n)
	if bonus < 0 {
		return 0, true
	}
	return bonus, false
}

// PointsForMatch scores one match. Each player earns score/maxScore plus a
// placement bonus of MaxBonus(n)/(rank) for the first three ranks.
func PointsForMatch(scores []ScoreEntry) MatchPoints {
	if len(scores) == 0 {
		return MatchPoints{Points: []PlayerPoints{}}
	}

	sorted := SortScores(scores)
	out := MatchPoints{Points: make([]PlayerPoints, len(sorted))}

	maxScore := sorted[0].Score
	if maxScore <= 0 {
		out.Degenerate = DegenerateZeroMaxScore
		for i, s := range sorted {
			out.Points[i] = PlayerPoints{PlayerID: s.PlayerID, Name: s.Name, DisplayName: s.DisplayName, Score: s.Score, Rank: i + 1}
		}
		return out
	}

	maxBonus, clamped := MaxBonus(len(sorted))
	if clamped {
		out.Degenerate = DegenerateClampedBonus
	}

	for i, s := range sorted {
		points := float64(s.Score) / float64(maxScore)
		if i < podiumSize {
			points += maxBonus / float64(i+1)
		}
		out.Points[i] = PlayerPoints{
			PlayerID:    s.PlayerID,
			Name:        s.Name,
			DisplayName: s.DisplayName,
			Score:       s.Score,
			Rank:        i + 1,
			Points:      points,
		}
	}
	return out
}

// FormatPoints renders points for display.
func FormatPoints(points float64) string {
	return fmt.Sprintf("%.2f", points)
}
