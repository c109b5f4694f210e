package matchhandlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	matchservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/application"
	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	matchqueue "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/queue"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/results"
)

func newTestHandlers(svc *FakeMatchService, q *FakeEnqueuer) *MatchHandlers {
	h := NewMatchHandlers(svc, q, slog.Default(), noop.NewTracerProvider().Tracer("test"))
	h.newRetry = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return h
}

func TestHandleChatMessage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		enqueue   func(ctx context.Context, link, chatID string) (matchqueue.EnqueueResult, error)
		wantLinks []string
		wantDup   []bool
		wantErr   bool
	}{
		{
			name:      "two links",
			text:      "gg https://www.geoguessr.com/challenge/AbC123 and https://geoguessr.com/challenge/xyz",
			wantLinks: []string{"AbC123", "xyz"},
			wantDup:   []bool{false, false},
		},
		{
			name: "no links",
			text: "anyone up for a round?",
		},
		{
			name: "duplicate refresh",
			text: "https://www.geoguessr.com/challenge/abc",
			enqueue: func(ctx context.Context, link, chatID string) (matchqueue.EnqueueResult, error) {
				return matchqueue.EnqueueResult{JobID: 1, Duplicate: true}, nil
			},
			wantLinks: []string{"abc"},
			wantDup:   []bool{true},
		},
		{
			name: "queue error",
			text: "https://www.geoguessr.com/challenge/abc",
			enqueue: func(ctx context.Context, link, chatID string) (matchqueue.EnqueueResult, error) {
				return matchqueue.EnqueueResult{}, errors.New("pool closed")
			},
			wantLinks: []string{"abc"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &FakeEnqueuer{EnqueueRefreshFunc: tt.enqueue}
			h := newTestHandlers(&FakeMatchService{}, q)

			got, err := h.HandleChatMessage(context.Background(), &events.ChatMessageReceivedPayload{ChatID: "c1", Text: tt.text})
			assert.Equal(t, tt.wantLinks, q.links)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.wantLinks))
			for i, r := range got {
				assert.Equal(t, events.MatchRefreshQueued, r.Topic)
				p := r.Payload.(events.MatchRefreshQueuedPayload)
				assert.Equal(t, tt.wantLinks[i], p.Link)
				assert.Equal(t, "c1", p.ChatID)
				assert.Equal(t, tt.wantDup[i], p.Duplicate)
			}
		})
	}
}

func TestHandleRefreshRequested(t *testing.T) {
	q := &FakeEnqueuer{}
	h := newTestHandlers(&FakeMatchService{}, q)

	got, err := h.HandleRefreshRequested(context.Background(), &events.MatchRefreshRequestedPayload{ChatID: "c1", Link: "abc"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.MatchRefreshQueued, got[0].Topic)

	got, err = h.HandleRefreshRequested(context.Background(), &events.MatchRefreshRequestedPayload{ChatID: "c1", Link: "../etc"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.MatchReconcileFailed, got[0].Topic)
	assert.Equal(t, events.GenericFailureReason, got[0].Payload.(events.MatchReconcileFailedPayload).Reason)
	assert.Equal(t, []string{"abc"}, q.links)
}

func TestHandlePayloadReceived(t *testing.T) {
	storageErr := &matchservice.StorageError{Op: "transaction", Err: errors.New("connection reset")}
	incoming := &events.MatchPayloadReceivedPayload{
		ChatID:    "c1",
		Link:      "abc",
		Map:       "world",
		TimeLimit: 90,
		Scores:    []events.ScoreEntry{{PlayerName: "alice", TotalScore: 10}},
	}

	t.Run("reconciled", func(t *testing.T) {
		svc := &FakeMatchService{}
		var got matchdomain.RawMatch
		svc.ReconcileFunc = func(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error) {
			got = payload
			return results.SuccessResult[matchservice.ReconcileOutcome, error](matchservice.ReconcileOutcome{
				Link: link, Status: matchservice.OutcomeFrozen, Season: 3, Category: payload.Category(),
			}), nil
		}
		h := newTestHandlers(svc, &FakeEnqueuer{})

		out, err := h.HandlePayloadReceived(context.Background(), incoming)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, events.MatchReconciled, out[0].Topic)
		p := out[0].Payload.(events.MatchReconciledPayload)
		assert.Equal(t, "frozen", p.Status)
		assert.Equal(t, 3, p.Season)
		assert.Equal(t, []matchdomain.ScoreEntry{{PlayerName: "alice", TotalScore: 10}}, got.Scores)
	})

	t.Run("storage error retried then succeeds", func(t *testing.T) {
		svc := &FakeMatchService{}
		calls := 0
		svc.ReconcileFunc = func(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error) {
			calls++
			if calls < 2 {
				return results.OperationResult[matchservice.ReconcileOutcome, error]{}, storageErr
			}
			return results.SuccessResult[matchservice.ReconcileOutcome, error](matchservice.ReconcileOutcome{Link: link, Status: matchservice.OutcomeApplied}), nil
		}
		h := newTestHandlers(svc, &FakeEnqueuer{})

		out, err := h.HandlePayloadReceived(context.Background(), incoming)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, events.MatchReconciled, out[0].Topic)
	})

	t.Run("storage error exhausts retries", func(t *testing.T) {
		svc := &FakeMatchService{}
		svc.ReconcileFunc = func(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error) {
			return results.OperationResult[matchservice.ReconcileOutcome, error]{}, storageErr
		}
		h := newTestHandlers(svc, &FakeEnqueuer{})

		out, err := h.HandlePayloadReceived(context.Background(), incoming)
		require.NoError(t, err)
		assert.Len(t, svc.Trace(), 3)
		assert.Equal(t, events.MatchReconcileFailed, out[0].Topic)
	})

	t.Run("non storage error is not retried", func(t *testing.T) {
		svc := &FakeMatchService{}
		svc.ReconcileFunc = func(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error) {
			return results.OperationResult[matchservice.ReconcileOutcome, error]{}, errors.New("panic in Reconcile: boom")
		}
		h := newTestHandlers(svc, &FakeEnqueuer{})

		out, err := h.HandlePayloadReceived(context.Background(), incoming)
		require.NoError(t, err)
		assert.Len(t, svc.Trace(), 1)
		assert.Equal(t, events.MatchReconcileFailed, out[0].Topic)
	})

	t.Run("validation failure", func(t *testing.T) {
		svc := &FakeMatchService{}
		svc.ReconcileFunc = func(ctx context.Context, link string, payload matchdomain.RawMatch) (results.OperationResult[matchservice.ReconcileOutcome, error], error) {
			return results.FailureResult[matchservice.ReconcileOutcome, error](&matchdomain.ValidationError{Field: "map", Reason: "is required"}), nil
		}
		h := newTestHandlers(svc, &FakeEnqueuer{})

		out, err := h.HandlePayloadReceived(context.Background(), incoming)
		require.NoError(t, err)
		assert.Len(t, svc.Trace(), 1)
		assert.Equal(t, events.MatchReconcileFailed, out[0].Topic)
	})
}

func TestHandleWhitelistAdd(t *testing.T) {
	svc := &FakeMatchService{}
	h := newTestHandlers(svc, &FakeEnqueuer{})

	out, err := h.HandleWhitelistAdd(context.Background(), &events.WhitelistAddRequestedPayload{ChatID: "c1", Name: "Alice"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, events.WhitelistAddedPayload{ChatID: "c1", Name: "alice", Added: true}, out[0].Payload)

	svc.AddToWhitelistFunc = func(ctx context.Context, name string) (results.OperationResult[matchservice.WhitelistResult, error], error) {
		return results.FailureResult[matchservice.WhitelistResult, error](&matchdomain.ValidationError{Field: "name", Reason: "is required"}), nil
	}
	out, err = h.HandleWhitelistAdd(context.Background(), &events.WhitelistAddRequestedPayload{ChatID: "c1", Name: " "})
	require.NoError(t, err)
	assert.Empty(t, out)

	svc.AddToWhitelistFunc = func(ctx context.Context, name string) (results.OperationResult[matchservice.WhitelistResult, error], error) {
		return results.OperationResult[matchservice.WhitelistResult, error]{}, errors.New("down")
	}
	_, err = h.HandleWhitelistAdd(context.Background(), &events.WhitelistAddRequestedPayload{Name: "bob"})
	assert.Error(t, err)
}
