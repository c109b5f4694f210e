package rankinghandlers

import (
	"context"

	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for ranking event handlers.
type Handlers interface {
	HandleRankingRequested(ctx context.Context, payload *events.RankingRequestedPayload) ([]handlerwrapper.Result, error)
	HandleRecordsRequested(ctx context.Context, payload *events.RecordsRequestedPayload) ([]handlerwrapper.Result, error)
}
