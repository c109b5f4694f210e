package testutils

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
)

const linkAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TestDataGenerator creates reproducible players, links and payloads.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewTestDataGenerator creates a generator with an optional seed.
func NewTestDataGenerator(seed ...uint64) *TestDataGenerator {
	s := uint64(time.Now().UnixNano())
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(s), seed: s}
}

// Seed returns the seed, for reproducing a failure.
func (g *TestDataGenerator) Seed() uint64 {
	return g.seed
}

// PlayerNames returns count distinct display names.
func (g *TestDataGenerator) PlayerNames(count int) []string {
	seen := make(map[string]bool, count)
	names := make([]string, 0, count)
	for len(names) < count {
		name := g.faker.Username()
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// Link returns a random 16 character link token.
func (g *TestDataGenerator) Link() string {
	var b strings.Builder
	for range 16 {
		b.WriteByte(linkAlphabet[g.faker.IntRange(0, len(linkAlphabet)-1)])
	}
	return b.String()
}

// RawMatch returns a payload where every name has a score between 0 and 25000.
func (g *TestDataGenerator) RawMatch(category matchdomain.Category, names []string) matchdomain.RawMatch {
	scores := make([]matchdomain.ScoreEntry, len(names))
	for i, name := range names {
		scores[i] = matchdomain.ScoreEntry{PlayerName: name, TotalScore: g.faker.IntRange(0, 25000)}
	}
	return matchdomain.RawMatch{Map: category.Map, TimeLimit: category.TimeLimit, Scores: scores}
}
