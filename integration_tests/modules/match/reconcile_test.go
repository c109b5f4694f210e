package match_integration_tests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

var worldFive = matchdomain.Category{Map: "world", TimeLimit: 300}

func payload(scores ...matchdomain.ScoreEntry) matchdomain.RawMatch {
	return matchdomain.RawMatch{Map: worldFive.Map, TimeLimit: worldFive.TimeLimit, Scores: scores}
}

func TestReconcile_IdempotentAcrossScrapes(t *testing.T) {
	d := setup(t)
	d.whitelist(t, "Alice", "bob")
	raw := payload(
		matchdomain.ScoreEntry{PlayerName: "Alice", TotalScore: 21000},
		matchdomain.ScoreEntry{PlayerName: "BOB", TotalScore: 18000},
	)

	first, err := d.matches.Reconcile(d.env.Ctx, "Ab12Cd34", raw)
	require.NoError(t, err)
	require.True(t, first.IsSuccess())
	assert.Equal(t, 2, first.Success.Inserted)

	second, err := d.matches.Reconcile(d.env.Ctx, "Ab12Cd34", raw)
	require.NoError(t, err)
	require.True(t, second.IsSuccess())
	assert.Equal(t, 0, second.Success.Inserted)
	assert.Equal(t, 2, second.Success.Updated)

	assert.Equal(t, first.Success.MatchID, second.Success.MatchID)
	assert.Equal(t, 2, d.resultCount(t, first.Success.MatchID))
	assert.Equal(t, 18000, d.score(t, "bob", first.Success.MatchID))

	matches, err := d.matches.ListMatches(d.env.Ctx, worldFive)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestReconcile_OverwritesScore(t *testing.T) {
	d := setup(t)
	d.whitelist(t, "alice")

	_, err := d.matches.Reconcile(d.env.Ctx, "link1", payload(matchdomain.ScoreEntry{PlayerName: "alice", TotalScore: 100}))
	require.NoError(t, err)
	res, err := d.matches.Reconcile(d.env.Ctx, "link1", payload(matchdomain.ScoreEntry{PlayerName: "alice", TotalScore: 9000}))
	require.NoError(t, err)

	assert.Equal(t, 9000, d.score(t, "alice", res.Success.MatchID))
	assert.Equal(t, 1, d.resultCount(t, res.Success.MatchID))
}

func TestReconcile_SkipsNamesOffWhitelist(t *testing.T) {
	d := setup(t)
	d.whitelist(t, "alice")

	res, err := d.matches.Reconcile(d.env.Ctx, "link2", payload(
		matchdomain.ScoreEntry{PlayerName: "alice", TotalScore: 5000},
		matchdomain.ScoreEntry{PlayerName: "bob", TotalScore: 4000},
	))
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, []string{"bob"}, res.Success.Skipped)
	assert.Equal(t, 1, d.resultCount(t, res.Success.MatchID))

	players, err := d.env.DB.NewSelect().Table("players").Where("name = ?", "bob").Count(d.env.Ctx)
	require.NoError(t, err)
	assert.Zero(t, players)
}

func TestReconcile_SeasonFreeze(t *testing.T) {
	tests := []struct {
		name       string
		createdAgo time.Duration
		closedAgo  time.Duration
		wantStatus matchservice.OutcomeStatus
		wantScore  int
	}{
		{name: "closed ten days ago", createdAgo: 20 * 24 * time.Hour, closedAgo: 10 * 24 * time.Hour, wantStatus: matchservice.OutcomeFrozen, wantScore: 1000},
		{name: "closed thirty minutes ago", createdAgo: time.Hour, closedAgo: 30 * time.Minute, wantStatus: matchservice.OutcomeApplied, wantScore: 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setup(t)
			d.whitelist(t, "alice")
			ctx := d.env.Ctx

			first, err := d.matches.Reconcile(ctx, "frozen1", payload(matchdomain.ScoreEntry{PlayerName: "alice", TotalScore: 1000}))
			require.NoError(t, err)
			matchID := first.Success.MatchID

			_, err = d.env.DB.NewUpdate().Table("matches").
				Set("created_at = ?", time.Now().Add(-tt.createdAgo)).
				Where("id = ?", matchID).
				Exec(ctx)
			require.NoError(t, err)

			rolled, err := d.seasons.Rollover(ctx, time.Now().Add(-tt.closedAgo))
			require.NoError(t, err)
			require.True(t, rolled.IsSuccess(), "rollover rejected: %v", rolled.Failure)

			second, err := d.matches.Reconcile(ctx, "frozen1", payload(matchdomain.ScoreEntry{PlayerName: "alice", TotalScore: 2000}))
			require.NoError(t, err)
			require.True(t, second.IsSuccess())
			assert.Equal(t, tt.wantStatus, second.Success.Status)
			assert.Equal(t, 1, second.Success.Season)
			assert.Equal(t, tt.wantScore, d.score(t, "alice", matchID))
		})
	}
}

func TestReconcile_DifferentLinksInParallel(t *testing.T) {
	d := setup(t)
	names := d.gen.PlayerNames(6)
	d.whitelist(t, names...)

	const links = 8
	g, ctx := errgroup.WithContext(d.env.Ctx)
	for i := range links {
		raw := d.gen.RawMatch(worldFive, names)
		link := fmt.Sprintf("par%02d", i)
		g.Go(func() error {
			res, err := d.matches.Reconcile(ctx, link, raw)
			if err != nil {
				return err
			}
			if res.IsFailure() {
				return *res.Failure
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	results, err := d.env.DB.NewSelect().Table("match_results").Count(d.env.Ctx)
	require.NoError(t, err)
	players, err := d.env.DB.NewSelect().Table("players").Count(d.env.Ctx)
	require.NoError(t, err)

	assert.Equal(t, links*len(names), results)
	assert.Equal(t, len(names), players)
}

func TestReconcile_RejectsMalformedPayload(t *testing.T) {
	d := setup(t)

	res, err := d.matches.Reconcile(d.env.Ctx, "bad1", matchdomain.RawMatch{Map: "", TimeLimit: 300, Scores: []matchdomain.ScoreEntry{}})
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.ErrorIs(t, *res.Failure, matchdomain.ErrValidation)

	links, err := d.matches.ListLinks(d.env.Ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}

// failingUpserts fails every UpsertResult after the first n succeed.
type failingUpserts struct {
	matchdb.Repository
	n     int
	calls int
}

func (r *failingUpserts) UpsertResult(ctx context.Context, db bun.IDB, result *matchdb.MatchResult) error {
	r.calls++
	if r.calls > r.n {
		return errors.New("connection reset by peer")
	}
	return r.Repository.UpsertResult(ctx, db, result)
}

func TestReconcile_RollsBackOnMidPayloadFailure(t *testing.T) {
	d := setup(t)
	d.whitelist(t, "alice", "bob")
	ctx := d.env.Ctx

	repo := matchdb.NewRepository(d.env.DB)
	empty, err := repo.CreateEmptyMatch(ctx, nil, "rollback1")
	require.NoError(t, err)

	flaky := &failingUpserts{Repository: repo, n: 1}
	svc := matchservice.NewMatchService(flaky, d.seasons, slog.Default(), observability.NoopOperationMetrics{}, d.tracer, d.env.DB)

	_, err = svc.Reconcile(ctx, "rollback1", payload(
		matchdomain.ScoreEntry{PlayerName: "alice", TotalScore: 5000},
		matchdomain.ScoreEntry{PlayerName: "bob", TotalScore: 4000},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, matchservice.ErrStorage)
	assert.Equal(t, 2, flaky.calls)

	assert.Zero(t, d.resultCount(t, empty.ID))

	stored, err := repo.FindMatchByLink(ctx, nil, "rollback1")
	require.NoError(t, err)
	assert.Nil(t, stored.Map)
	assert.Nil(t, stored.TimeLimit)
}
