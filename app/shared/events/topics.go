// Package events defines the NATS subjects and JSON payloads exchanged with
// the chat transport.
package events

const (
	// ChatMessageReceived carries every chat message seen by the transport.
	ChatMessageReceived = "geoguessr.chat.message.received.v1"

	MatchRefreshRequested   = "geoguessr.match.refresh.requested.v1"
	MatchRefreshQueued      = "geoguessr.match.refresh.queued.v1"
	MatchPayloadReceived    = "geoguessr.match.payload.received.v1"
	MatchReconciled         = "geoguessr.match.reconciled.v1"
	MatchReconcileFailed    = "geoguessr.match.reconcile.failed.v1"
	RankingRequested        = "geoguessr.ranking.requested.v1"
	RankingComputed         = "geoguessr.ranking.computed.v1"
	RankingFailed           = "geoguessr.ranking.failed.v1"
	RecordsRequested        = "geoguessr.records.requested.v1"
	RecordsComputed         = "geoguessr.records.computed.v1"
	WhitelistAddRequested   = "geoguessr.whitelist.add.requested.v1"
	WhitelistAdded          = "geoguessr.whitelist.added.v1"
	SeasonRolloverRequested = "geoguessr.season.rollover.requested.v1"
	SeasonRolledOver        = "geoguessr.season.rolled_over.v1"
	SeasonRolloverFailed    = "geoguessr.season.rollover.failed.v1"
)

// GenericFailureReason is the only failure detail shown to chat users.
const GenericFailureReason = "could not process request"
