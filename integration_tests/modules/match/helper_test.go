package match_integration_tests

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	seasonservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/application"
	seasondb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
	"github.com/Black-And-White-Club/geoguessr-bot/integration_tests/testutils"
)

type deps struct {
	tracer  trace.Tracer
	env     *testutils.TestEnvironment
	seasons *seasonservice.SeasonService
	matches *matchservice.MatchService
	gen     *testutils.TestDataGenerator
}

func setup(t *testing.T) deps {
	t.Helper()
	env := testutils.GetOrCreateTestEnv(t)
	env.Reset(t)

	tracer := noop.NewTracerProvider().Tracer("test")
	seasons := seasonservice.NewSeasonService(seasondb.NewRepository(env.DB), slog.Default(), observability.NoopOperationMetrics{}, tracer, env.DB, env.Config.Season.GraceWindow)
	matches := matchservice.NewMatchService(matchdb.NewRepository(env.DB), seasons, slog.Default(), observability.NoopOperationMetrics{}, tracer, env.DB)

	return deps{env: env, tracer: tracer, seasons: seasons, matches: matches, gen: testutils.NewTestDataGenerator(7)}
}

func (d deps) whitelist(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		res, err := d.matches.AddToWhitelist(d.env.Ctx, name)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
	}
}

func (d deps) resultCount(t *testing.T, matchID int64) int {
	t.Helper()
	n, err := d.env.DB.NewSelect().Model((*matchdb.MatchResult)(nil)).Where("match_id = ?", matchID).Count(d.env.Ctx)
	require.NoError(t, err)
	return n
}

func (d deps) score(t *testing.T, name string, matchID int64) int {
	t.Helper()
	var score int
	err := d.env.DB.NewSelect().
		TableExpr("match_results AS mr").
		ColumnExpr("mr.total_score").
		Join("JOIN players AS p ON p.id = mr.player_id").
		Where("p.name = ?", name).
		Where("mr.match_id = ?", matchID).
		Scan(d.env.Ctx, &score)
	require.NoError(t, err)
	return score
}
