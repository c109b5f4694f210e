package matchdomain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxLinkLength bounds the opaque match token.
const MaxLinkLength = 32

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("invalid match payload")

var linkPattern = regexp.MustCompile(`^\w+$`)

// ValidationError reports a malformed payload field. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ScoreEntry is one player's total in a match.
type ScoreEntry struct {
	PlayerName string `json:"player_name"`
	TotalScore int    `json:"total_score"`
}

// RawMatch is the structured payload extracted from a results page.
type RawMatch struct {
	Map       string       `json:"map"`
	TimeLimit int          `json:"time_limit"`
	Scores    []ScoreEntry `json:"scores"`
}

// Category groups comparable matches for ranking.
type Category struct {
	Map       string `json:"map"`
	TimeLimit int    `json:"time_limit"`
}

func (c Category) String() string {
	return fmt.Sprintf("%s/%ds", c.Map, c.TimeLimit)
}

// Validate checks the category fields.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Map) == "" {
		return &ValidationError{Field: "map", Reason: "is required"}
	}
	if c.TimeLimit <= 0 {
		return &ValidationError{Field: "time_limit", Reason: "must be a positive number of seconds"}
	}
	return nil
}

// Category returns the payload's category.
func (m RawMatch) Category() Category {
	return Category{Map: strings.TrimSpace(m.Map), TimeLimit: m.TimeLimit}
}

// ValidateLink checks the opaque match token.
func ValidateLink(link string) error {
	if link == "" {
		return &ValidationError{Field: "link", Reason: "is required"}
	}
	if len(link) > MaxLinkLength {
		return &ValidationError{Field: "link", Reason: fmt.Sprintf("exceeds %d characters", MaxLinkLength)}
	}
	if !linkPattern.MatchString(link) {
		return &ValidationError{Field: "link", Reason: "must be alphanumeric"}
	}
	return nil
}

// Validate checks required fields. An empty score list is valid; a nil one
// means the extractor found no score list at all.
func (m RawMatch) Validate() error {
	if err := m.Category().Validate(); err != nil {
		return err
	}
	if m.Scores == nil {
		return &ValidationError{Field: "scores", Reason: "is required"}
	}
	for i, s := range m.Scores {
		if NormalizeName(s.PlayerName) == "" {
			return &ValidationError{Field: fmt.Sprintf("scores[%d].player_name", i), Reason: "is required"}
		}
		if s.TotalScore < 0 {
			return &ValidationError{Field: fmt.Sprintf("scores[%d].total_score", i), Reason: "must not be negative"}
		}
	}
	return nil
}

// NormalizeName case-folds a player name into its identity form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizedEntry is a score entry keyed by its normalized player name.
type NormalizedEntry struct {
	Name        string
	DisplayName string
	TotalScore  int
}

// NormalizedScores returns one entry per normalized name in first-seen order.
// When a name repeats the last score wins; the first spelling is kept for
// display.
func (m RawMatch) NormalizedScores() []NormalizedEntry {
	out := make([]NormalizedEntry, 0, len(m.Scores))
	index := make(map[string]int, len(m.Scores))
	for _, s := range m.Scores {
		name := NormalizeName(s.PlayerName)
		if i, ok := index[name]; ok {
			out[i].TotalScore = s.TotalScore
			continue
		}
		index[name] = len(out)
		out = append(out, NormalizedEntry{
			Name:        name,
			DisplayName: strings.TrimSpace(s.PlayerName),
			TotalScore:  s.TotalScore,
		})
	}
	return out
}
