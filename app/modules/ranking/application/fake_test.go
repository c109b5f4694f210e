package rankingservice

import (
	"context"
	"sync"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// FakeMatchReader serves canned rows unless a Func override is set. Result
// queries run concurrently, so the trace is guarded.
type FakeMatchReader struct {
	mu    sync.Mutex
	trace []string

	Matches []matchdb.Match
	Results map[int64][]matchdb.ResultRow
	Top     []matchdb.TopScoreRow

	ListMatchesByCategoryFunc func(ctx context.Context, db bun.IDB, category matchdomain.Category) ([]matchdb.Match, error)
	ListResultsForMatchFunc   func(ctx context.Context, db bun.IDB, matchID int64) ([]matchdb.ResultRow, error)
	TopScoresByCategoryFunc   func(ctx context.Context, db bun.IDB, limit int) ([]matchdb.TopScoreRow, error)
}

func NewFakeMatchReader() *FakeMatchReader {
	return &FakeMatchReader{Results: map[int64][]matchdb.ResultRow{}}
}

func (f *FakeMatchReader) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeMatchReader) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeMatchReader) ListMatchesByCategory(ctx context.Context, db bun.IDB, category matchdomain.Category) ([]matchdb.Match, error) {
	f.record("ListMatchesByCategory")
	if f.ListMatchesByCategoryFunc != nil {
		return f.ListMatchesByCategoryFunc(ctx, db, category)
	}
	return f.Matches, nil
}

func (f *FakeMatchReader) ListResultsForMatch(ctx context.Context, db bun.IDB, matchID int64) ([]matchdb.ResultRow, error) {
	f.record("ListResultsForMatch")
	if f.ListResultsForMatchFunc != nil {
		return f.ListResultsForMatchFunc(ctx, db, matchID)
	}
	return f.Results[matchID], nil
}

func (f *FakeMatchReader) TopScoresByCategory(ctx context.Context, db bun.IDB, limit int) ([]matchdb.TopScoreRow, error) {
	f.record("TopScoresByCategory")
	if f.TopScoresByCategoryFunc != nil {
		return f.TopScoresByCategoryFunc(ctx, db, limit)
	}
	return f.Top, nil
}

var _ MatchReader = (*FakeMatchReader)(nil)
