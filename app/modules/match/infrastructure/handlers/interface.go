package matchhandlers

import (
	"context"

	matchqueue "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/infrastructure/queue"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for match event handlers.
type Handlers interface {
	// HandleChatMessage enqueues a refresh for every match link in a chat message.
	HandleChatMessage(ctx context.Context, payload *events.ChatMessageReceivedPayload) ([]handlerwrapper.Result, error)

	// HandleRefreshRequested enqueues a refresh for one link.
	HandleRefreshRequested(ctx context.Context, payload *events.MatchRefreshRequestedPayload) ([]handlerwrapper.Result, error)

	// HandlePayloadReceived reconciles an already extracted payload.
	HandlePayloadReceived(ctx context.Context, payload *events.MatchPayloadReceivedPayload) ([]handlerwrapper.Result, error)

	// HandleWhitelistAdd adds a name to the whitelist.
	HandleWhitelistAdd(ctx context.Context, payload *events.WhitelistAddRequestedPayload) ([]handlerwrapper.Result, error)
}

// Enqueuer queues match refreshes.
type Enqueuer interface {
	EnqueueRefresh(ctx context.Context, link, chatID string) (matchqueue.EnqueueResult, error)
}
