package seasondomain

import (
	"cmp"
	"errors"
	"slices"
	"time"
)

// DefaultGraceWindow is how long a closed season keeps accepting corrections.
const DefaultGraceWindow = 24 * time.Hour

var (
	ErrNoOpenSeason           = errors.New("no open season")
	ErrRolloverInFuture       = errors.New("season end must not be in the future")
	ErrRolloverBeforePrevious = errors.New("season end must not precede the previous season's end")
)

// Season is a numbered competition period. A nil EndedAt marks the open season.
type Season struct {
	Number  int
	EndedAt *time.Time
}

// IsClosed reports whether the season has an end timestamp.
func (s Season) IsClosed() bool {
	return s.EndedAt != nil
}

// SeasonInfo is the resolved season context for one match.
type SeasonInfo struct {
	Number int
	Open   bool
}

// sortedByNumber returns a copy ordered by season number ascending.
func sortedByNumber(seasons []Season) []Season {
	sorted := make([]Season, len(seasons))
	copy(sorted, seasons)
	slices.SortFunc(sorted, func(a, b Season) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return sorted
}

// SeasonOf returns the smallest season number whose end is unset or not
// before createdAt.
//
// With no seasons recorded every match belongs to season 1. If every season
// ended before createdAt (no open season exists), the latest season is used.
func SeasonOf(seasons []Season, createdAt time.Time) int {
	if len(seasons) == 0 {
		return 1
	}
	sorted := sortedByNumber(seasons)
	for _, s := range sorted {
		if s.EndedAt == nil || !s.EndedAt.Before(createdAt) {
			return s.Number
		}
	}
	return sorted[len(sorted)-1].Number
}

// IsOpen reports whether season still accepts writes at now: it has no end,
// or it ended at most grace ago.
func IsOpen(season Season, now time.Time, grace time.Duration) bool {
	if season.EndedAt == nil {
		return true
	}
	return now.Sub(*season.EndedAt) <= grace
}

// CurrentSeason returns the highest season number, or 1 when none exist.
func CurrentSeason(seasons []Season) int {
	current := 1
	for i, s := range seasons {
		if i == 0 || s.Number > current {
			current = s.Number
		}
	}
	return current
}

// Find looks a season up by number.
func Find(seasons []Season, number int) (Season, bool) {
	for _, s := range seasons {
		if s.Number == number {
			return s, true
		}
	}
	return Season{}, false
}

// IsNumberOpen reports whether the numbered season accepts writes at now. A
// number with no stored row is open: it can only be a season that has not
// been closed yet.
func IsNumberOpen(seasons []Season, number int, now time.Time, grace time.Duration) bool {
	season, ok := Find(seasons, number)
	if !ok {
		return true
	}
	return IsOpen(season, now, grace)
}

// ResolveSeasonForMatch combines SeasonOf and IsNumberOpen.
func ResolveSeasonForMatch(seasons []Season, createdAt, now time.Time, grace time.Duration) SeasonInfo {
	number := SeasonOf(seasons, createdAt)
	return SeasonInfo{Number: number, Open: IsNumberOpen(seasons, number, now, grace)}
}

// ValidateRollover checks that the current season can be closed at endAt.
func ValidateRollover(seasons []Season, endAt, now time.Time) error {
	current, ok := Find(seasons, CurrentSeason(seasons))
	if !ok || current.IsClosed() {
		return ErrNoOpenSeason
	}
	if endAt.After(now) {
		return ErrRolloverInFuture
	}
	if prev, ok := Find(seasons, current.Number-1); ok && prev.EndedAt != nil && endAt.Before(*prev.EndedAt) {
		return ErrRolloverBeforePrevious
	}
	return nil
}
