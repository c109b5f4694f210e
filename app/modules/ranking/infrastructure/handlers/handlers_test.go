package rankinghandlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
)

func newTestHandlers(svc *FakeRankingService) *RankingHandlers {
	return NewRankingHandlers(svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleRankingRequested(t *testing.T) {
	scenario := rankingdomain.Aggregate([]rankingdomain.MatchScores{{
		MatchID: 1,
		Scores: []rankingdomain.ScoreEntry{
			{Name: "a", DisplayName: "A", Score: 5000},
			{Name: "b", Score: 3000},
			{Name: "c", Score: 1000},
		},
	}})

	tests := []struct {
		name      string
		aggregate func(context.Context, matchdomain.Category) (*rankingdomain.Standings, error)
		wantTopic string
		check     func(t *testing.T, payload any)
	}{
		{
			name: "computed",
			aggregate: func(_ context.Context, c matchdomain.Category) (*rankingdomain.Standings, error) {
				if c != (matchdomain.Category{Map: "world", TimeLimit: 300}) {
					return nil, errors.New("unexpected category")
				}
				return &scenario, nil
			},
			wantTopic: events.RankingComputed,
			check: func(t *testing.T, payload any) {
				p := payload.(events.RankingComputedPayload)
				assert.Equal(t, "chat-1", p.ChatID)
				assert.Equal(t, 1, p.Matches)
				require.Len(t, p.Totals, 3)
				assert.Equal(t, events.StandingEntry{Rank: 1, Player: "A", Points: scenario.Totals[0].Points, Display: "1.17"}, p.Totals[0])
				assert.Equal(t, "0.68", p.Totals[1].Display)
				assert.Equal(t, "0.26", p.Totals[2].Display)
				assert.Len(t, p.Averages, 3)
			},
		},
		{
			name: "empty category",
			aggregate: func(context.Context, matchdomain.Category) (*rankingdomain.Standings, error) {
				return &rankingdomain.Standings{}, nil
			},
			wantTopic: events.RankingComputed,
			check: func(t *testing.T, payload any) {
				p := payload.(events.RankingComputedPayload)
				assert.Empty(t, p.Totals)
				assert.NotNil(t, p.Totals)
			},
		},
		{
			name: "failure hides detail",
			aggregate: func(context.Context, matchdomain.Category) (*rankingdomain.Standings, error) {
				return nil, errors.New("pq: relation does not exist")
			},
			wantTopic: events.RankingFailed,
			check: func(t *testing.T, payload any) {
				p := payload.(events.RankingFailedPayload)
				assert.Equal(t, events.GenericFailureReason, p.Reason)
				assert.Equal(t, "world", p.Map)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeRankingService{AggregateFunc: tt.aggregate}
			got, err := newTestHandlers(svc).HandleRankingRequested(context.Background(), &events.RankingRequestedPayload{
				ChatID: "chat-1", Map: "world", TimeLimit: 300,
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantTopic, got[0].Topic)
			tt.check(t, got[0].Payload)
			assert.Equal(t, []string{"Aggregate"}, svc.Trace())
		})
	}
}

func TestHandleRecordsRequested(t *testing.T) {
	t.Run("computed", func(t *testing.T) {
		svc := &FakeRankingService{
			RecordsFunc: func(context.Context) ([]rankingdomain.CategoryRecords, error) {
				return []rankingdomain.CategoryRecords{{
					Category: matchdomain.Category{Map: "usa", TimeLimit: 60},
					Top:      []rankingdomain.Record{{Rank: 1, Player: "Alice", Score: 24000, Link: "abc"}},
				}}, nil
			},
		}

		got, err := newTestHandlers(svc).HandleRecordsRequested(context.Background(), &events.RecordsRequestedPayload{ChatID: "c"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, events.RecordsComputed, got[0].Topic)
		assert.Equal(t, events.RecordsComputedPayload{
			ChatID: "c",
			Categories: []events.CategoryRecords{{
				Map:       "usa",
				TimeLimit: 60,
				Top:       []events.RecordEntry{{Rank: 1, Player: "Alice", Score: 24000, Link: "abc"}},
			}},
		}, got[0].Payload)
	})

	t.Run("failure", func(t *testing.T) {
		svc := &FakeRankingService{
			RecordsFunc: func(context.Context) ([]rankingdomain.CategoryRecords, error) {
				return nil, errors.New("down")
			},
		}

		got, err := newTestHandlers(svc).HandleRecordsRequested(context.Background(), &events.RecordsRequestedPayload{ChatID: "c"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, events.RankingFailed, got[0].Topic)
	})
}
