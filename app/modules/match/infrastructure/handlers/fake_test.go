package matchhandlers

import (
	"context"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchdb "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/repositories"
	matchqueue "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/queue"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
)

// ------------------------
// Fake Match Service
// ------------------------

type FakeMatchService struct {
	trace []string

	ReconcileFunc      func(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error)
	AddToWhitelistFunc func(ctx context.Context, name string) (results.OperationResult[matchservice.WhitelistResult, error], error)
}

func (f *FakeMatchService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeMatchService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeMatchService) Reconcile(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error) {
	f.record("Reconcile")
	if f.ReconcileFunc != nil {
		return f.ReconcileFunc(ctx, link, payload)
	}
	return results.SuccessResult[matchservice.ReconcileOutcome, error](matchservice.ReconcileOutcome{
		Link:     link,
		Status:   matchservice.OutcomeApplied,
		Category: payload.Category(),
		Skipped:  []string{},
	}), nil
}

func (f *FakeMatchService) AddToWhitelist(ctx context.Context, name string) (results.OperationResult[matchservice.WhitelistResult, error], error) {
	f.record("AddToWhitelist")
	if f.AddToWhitelistFunc != nil {
		return f.AddToWhitelistFunc(ctx, name)
	}
	return results.SuccessResult[matchservice.WhitelistResult, error](matchservice.WhitelistResult{
		Name:  matchdomain.NormalizeName(name),
		Added: true,
	}), nil
}

func (f *FakeMatchService) ListWhitelist(ctx context.Context) ([]string, error) {
	f.record("ListWhitelist")
	return nil, nil
}

func (f *FakeMatchService) ListLinks(ctx context.Context) ([]string, error) {
	f.record("ListLinks")
	return nil, nil
}

func (f *FakeMatchService) ListCategories(ctx context.Context) ([]matchdb.CategoryRow, error) {
	f.record("ListCategories")
	return nil, nil
}

func (f *FakeMatchService) ListMatches(ctx context.Context, category matchdomain.Category) ([]matchdb.Match, error) {
	f.record("ListMatches")
	return nil, nil
}

// ------------------------
// Fake Enqueuer
// ------------------------

type FakeEnqueuer struct {
	links []string

	EnqueueRefreshFunc func(ctx context.Context, link, chatID string) (matchqueue.EnqueueResult, error)
}

func (f *FakeEnqueuer) EnqueueRefresh(ctx context.Context, link, chatID string) (matchqueue.EnqueueResult, error) {
	f.links = append(f.links, link)
	if f.EnqueueRefreshFunc != nil {
		return f.EnqueueRefreshFunc(ctx, link, chatID)
	}
	return matchqueue.EnqueueResult{JobID: int64(len(f.links))}, nil
}

var _ matchservice.Service = (*FakeMatchService)(nil)
var _ Enqueuer = (*FakeEnqueuer)(nil)
