package seasonservice

import (
	"context"
	"time"

	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Season Repo
// ------------------------

type FakeSeasonRepo struct {
	trace []string

	ListSeasonsFunc  func(ctx context.Context, db bun.IDB) ([]seasondb.Season, error)
	CloseSeasonFunc  func(ctx context.Context, db bun.IDB, number int, endedAt time.Time) error
	CreateSeasonFunc func(ctx context.Context, db bun.IDB, number int) (*seasondb.Season, error)
}

func NewFakeSeasonRepo() *FakeSeasonRepo {
	return &FakeSeasonRepo{
		trace: []string{},
	}
}

func (f *FakeSeasonRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeSeasonRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeSeasonRepo) ListSeasons(ctx context.Context, db bun.IDB) ([]seasondb.Season, error) {
	f.record("ListSeasons")
	if f.ListSeasonsFunc != nil {
		return f.ListSeasonsFunc(ctx, db)
	}
	return []seasondb.Season{{Number: 1}}, nil
}

func (f *FakeSeasonRepo) CloseSeason(ctx context.Context, db bun.IDB, number int, endedAt time.Time) error {
	f.record("CloseSeason")
	if f.CloseSeasonFunc != nil {
		return f.CloseSeasonFunc(ctx, db, number, endedAt)
	}
	return nil
}

func (f *FakeSeasonRepo) CreateSeason(ctx context.Context, db bun.IDB, number int) (*seasondb.Season, error) {
	f.record("CreateSeason")
	if f.CreateSeasonFunc != nil {
		return f.CreateSeasonFunc(ctx, db, number)
	}
	return &seasondb.Season{Number: number}, nil
}

var _ seasondb.Repository = (*FakeSeasonRepo)(nil)
