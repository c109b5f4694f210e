package rankinghandlers

import (
	"context"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	rankingservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/application"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
)

// FakeRankingService answers with the configured Func or zero values.
type FakeRankingService struct {
	trace []string

	AggregateFunc func(ctx context.Context, category matchdomain.Category) (*rankingdomain.Standings, error)
	RecordsFunc   func(ctx context.Context) ([]rankingdomain.CategoryRecords, error)
}

func (f *FakeRankingService) Trace() []string {
	return f.trace
}

func (f *FakeRankingService) Aggregate(ctx context.Context, category matchdomain.Category) (*rankingdomain.Standings, error) {
	f.trace = append(f.trace, "Aggregate")
	if f.AggregateFunc != nil {
		return f.AggregateFunc(ctx, category)
	}
	return &rankingdomain.Standings{}, nil
}

func (f *FakeRankingService) Records(ctx context.Context) ([]rankingdomain.CategoryRecords, error) {
	f.trace = append(f.trace, "Records")
	if f.RecordsFunc != nil {
		return f.RecordsFunc(ctx)
	}
	return nil, nil
}

var _ rankingservice.Service = (*FakeRankingService)(nil)
