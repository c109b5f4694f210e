package matchservice

import (
	"context"
	"sort"
	"time"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	seasondomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/domain"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Match Repo
// ------------------------

// FakeMatchRepo keeps rows in memory unless a Func override is set.
type FakeMatchRepo struct {
	trace []string

	players   map[string]*matchdb.Player
	matches   map[string]*matchdb.Match
	results   map[[2]int64]*matchdb.MatchResult
	whitelist map[string]bool
	nextID    int64
	createdAt time.Time

	FindPlayerByNameFunc    func(ctx context.Context, db bun.IDB, name string) (*matchdb.Player, error)
	CreatePlayerFunc        func(ctx context.Context, db bun.IDB, name, displayName string) (*matchdb.Player, error)
	FindMatchByLinkFunc     func(ctx context.Context, db bun.IDB, link string) (*matchdb.Match, error)
	CreateEmptyMatchFunc    func(ctx context.Context, db bun.IDB, link string) (*matchdb.Match, error)
	UpdateMatchCategoryFunc func(ctx context.Context, db bun.IDB, matchID int64, category matchdomain.Category) error
	FindResultFunc          func(ctx context.Context, db bun.IDB, playerID, matchID int64) (*matchdb.MatchResult, error)
	UpsertResultFunc        func(ctx context.Context, db bun.IDB, result *matchdb.MatchResult) error
	IsNameWhitelistedFunc   func(ctx context.Context, db bun.IDB, name string) (bool, error)
	AddToWhitelistFunc      func(ctx context.Context, db bun.IDB, name string) (bool, error)
	ListLinksFunc           func(ctx context.Context, db bun.IDB) ([]string, error)
}

func NewFakeMatchRepo(whitelisted ...string) *FakeMatchRepo {
	f := &FakeMatchRepo{
		trace:     []string{},
		players:   map[string]*matchdb.Player{},
		matches:   map[string]*matchdb.Match{},
		results:   map[[2]int64]*matchdb.MatchResult{},
		whitelist: map[string]bool{},
		createdAt: time.Date(2026, 9, 30, 18, 0, 0, 0, time.UTC),
	}
	for _, name := range whitelisted {
		f.whitelist[name] = true
	}
	return f
}

func (f *FakeMatchRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeMatchRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeMatchRepo) id() int64 {
	f.nextID++
	return f.nextID
}

// ResultCount returns the number of stored result rows for a match.
func (f *FakeMatchRepo) ResultCount(matchID int64) int {
	n := 0
	for key := range f.results {
		if key[1] == matchID {
			n++
		}
	}
	return n
}

// Score returns the stored score of a player in a match.
func (f *FakeMatchRepo) Score(name, link string) (int, bool) {
	p, ok := f.players[name]
	if !ok {
		return 0, false
	}
	m, ok := f.matches[link]
	if !ok {
		return 0, false
	}
	r, ok := f.results[[2]int64{p.ID, m.ID}]
	if !ok {
		return 0, false
	}
	return r.TotalScore, true
}

func (f *FakeMatchRepo) FindPlayerByName(ctx context.Context, db bun.IDB, name string) (*matchdb.Player, error) {
	f.record("FindPlayerByName")
	if f.FindPlayerByNameFunc != nil {
		return f.FindPlayerByNameFunc(ctx, db, name)
	}
	if p, ok := f.players[name]; ok {
		return p, nil
	}
	return nil, matchdb.ErrNotFound
}

func (f *FakeMatchRepo) CreatePlayer(ctx context.Context, db bun.IDB, name, displayName string) (*matchdb.Player, error) {
	f.record("CreatePlayer")
	if f.CreatePlayerFunc != nil {
		return f.CreatePlayerFunc(ctx, db, name, displayName)
	}
	if p, ok := f.players[name]; ok {
		return p, nil
	}
	p := &matchdb.Player{ID: f.id(), Name: name, DisplayName: displayName}
	f.players[name] = p
	return p, nil
}

func (f *FakeMatchRepo) FindMatchByLink(ctx context.Context, db bun.IDB, link string) (*matchdb.Match, error) {
	f.record("FindMatchByLink")
	if f.FindMatchByLinkFunc != nil {
		return f.FindMatchByLinkFunc(ctx, db, link)
	}
	if m, ok := f.matches[link]; ok {
		return m, nil
	}
	return nil, matchdb.ErrNotFound
}

func (f *FakeMatchRepo) CreateEmptyMatch(ctx context.Context, db bun.IDB, link string) (*matchdb.Match, error) {
	f.record("CreateEmptyMatch")
	if f.CreateEmptyMatchFunc != nil {
		return f.CreateEmptyMatchFunc(ctx, db, link)
	}
	if m, ok := f.matches[link]; ok {
		return m, nil
	}
	m := &matchdb.Match{ID: f.id(), Link: link, CreatedAt: f.createdAt, UpdatedAt: f.createdAt}
	f.matches[link] = m
	return m, nil
}

func (f *FakeMatchRepo) UpdateMatchCategory(ctx context.Context, db bun.IDB, matchID int64, category matchdomain.Category) error {
	f.record("UpdateMatchCategory")
	if f.UpdateMatchCategoryFunc != nil {
		return f.UpdateMatchCategoryFunc(ctx, db, matchID, category)
	}
	for _, m := range f.matches {
		if m.ID == matchID {
			mapName, limit := category.Map, category.TimeLimit
			m.Map, m.TimeLimit = &mapName, &limit
			return nil
		}
	}
	return matchdb.ErrNoRowsAffected
}

func (f *FakeMatchRepo) FindResult(ctx context.Context, db bun.IDB, playerID, matchID int64) (*matchdb.MatchResult, error) {
	f.record("FindResult")
	if f.FindResultFunc != nil {
		return f.FindResultFunc(ctx, db, playerID, matchID)
	}
	if r, ok := f.results[[2]int64{playerID, matchID}]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, matchdb.ErrNotFound
}

func (f *FakeMatchRepo) UpsertResult(ctx context.Context, db bun.IDB, result *matchdb.MatchResult) error {
	f.record("UpsertResult")
	if f.UpsertResultFunc != nil {
		return f.UpsertResultFunc(ctx, db, result)
	}
	key := [2]int64{result.PlayerID, result.MatchID}
	if existing, ok := f.results[key]; ok {
		existing.TotalScore = result.TotalScore
		return nil
	}
	stored := *result
	stored.ID = f.id()
	f.results[key] = &stored
	return nil
}

func (f *FakeMatchRepo) ListMatchesByCategory(ctx context.Context, db bun.IDB, category matchdomain.Category) ([]matchdb.Match, error) {
	f.record("ListMatchesByCategory")
	var out []matchdb.Match
	for _, m := range f.matches {
		if c, ok := m.Category(); ok && c == category {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeMatchRepo) ListResultsForMatch(ctx context.Context, db bun.IDB, matchID int64) ([]matchdb.ResultRow, error) {
	f.record("ListResultsForMatch")
	return nil, nil
}

func (f *FakeMatchRepo) IsNameWhitelisted(ctx context.Context, db bun.IDB, name string) (bool, error) {
	f.record("IsNameWhitelisted")
	if f.IsNameWhitelistedFunc != nil {
		return f.IsNameWhitelistedFunc(ctx, db, name)
	}
	return f.whitelist[name], nil
}

func (f *FakeMatchRepo) AddToWhitelist(ctx context.Context, db bun.IDB, name string) (bool, error) {
	f.record("AddToWhitelist")
	if f.AddToWhitelistFunc != nil {
		return f.AddToWhitelistFunc(ctx, db, name)
	}
	if f.whitelist[name] {
		return false, nil
	}
	f.whitelist[name] = true
	return true, nil
}

func (f *FakeMatchRepo) ListWhitelist(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("ListWhitelist")
	names := make([]string, 0, len(f.whitelist))
	for name := range f.whitelist {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeMatchRepo) ListLinks(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("ListLinks")
	if f.ListLinksFunc != nil {
		return f.ListLinksFunc(ctx, db)
	}
	links := make([]string, 0, len(f.matches))
	for link := range f.matches {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

func (f *FakeMatchRepo) ListCategories(ctx context.Context, db bun.IDB) ([]matchdb.CategoryRow, error) {
	f.record("ListCategories")
	return nil, nil
}

func (f *FakeMatchRepo) TopScoresByCategory(ctx context.Context, db bun.IDB, limit int) ([]matchdb.TopScoreRow, error) {
	f.record("TopScoresByCategory")
	return nil, nil
}

// ------------------------
// Fake Season Resolver
// ------------------------

type FakeSeasonResolver struct {
	calls int

	ResolveForMatchFunc func(ctx context.Context, db bun.IDB, createdAt time.Time) (seasondomain.SeasonInfo, error)
}

func (f *FakeSeasonResolver) ResolveForMatch(ctx context.Context, db bun.IDB, createdAt time.Time) (seasondomain.SeasonInfo, error) {
	f.calls++
	if f.ResolveForMatchFunc != nil {
		return f.ResolveForMatchFunc(ctx, db, createdAt)
	}
	return seasondomain.SeasonInfo{Number: 1, Open: true}, nil
}

var _ matchdb.Repository = (*FakeMatchRepo)(nil)
var _ SeasonResolver = (*FakeSeasonResolver)(nil)
