package events

import "time"

// ChatMessageReceivedPayload is a raw chat message.
type ChatMessageReceivedPayload struct {
	ChatID string `json:"chat_id"`
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// MatchRefreshRequestedPayload asks for a results page to be scraped again.
type MatchRefreshRequestedPayload struct {
	ChatID string `json:"chat_id"`
	Link   string `json:"link"`
}

// MatchRefreshQueuedPayload acknowledges an enqueued refresh. Duplicate is
// set when a refresh for the link was already pending.
type MatchRefreshQueuedPayload struct {
	ChatID    string `json:"chat_id"`
	Link      string `json:"link"`
	Duplicate bool   `json:"duplicate"`
}

// ScoreEntry is one player's total in a match payload.
type ScoreEntry struct {
	PlayerName string `json:"player_name"`
	TotalScore int    `json:"total_score"`
}

// MatchPayloadReceivedPayload carries an already extracted match.
type MatchPayloadReceivedPayload struct {
	ChatID    string       `json:"chat_id"`
	Link      string       `json:"link"`
	Map       string       `json:"map"`
	TimeLimit int          `json:"time_limit"`
	Scores    []ScoreEntry `json:"scores"`
}

// MatchReconciledPayload reports a successful reconciliation.
type MatchReconciledPayload struct {
	ChatID    string   `json:"chat_id"`
	Link      string   `json:"link"`
	Season    int      `json:"season"`
	Status    string   `json:"status"`
	Map       string   `json:"map"`
	TimeLimit int      `json:"time_limit"`
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   []string `json:"skipped"`
}

// MatchReconcileFailedPayload reports a failed reconciliation.
type MatchReconcileFailedPayload struct {
	ChatID string `json:"chat_id"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// RankingRequestedPayload asks for the standings of one category.
type RankingRequestedPayload struct {
	ChatID    string `json:"chat_id"`
	Map       string `json:"map"`
	TimeLimit int    `json:"time_limit"`
}

// StandingEntry is one ranked player. Display carries the two-decimal form.
type StandingEntry struct {
	Rank    int     `json:"rank"`
	Player  string  `json:"player"`
	Points  float64 `json:"points"`
	Display string  `json:"display"`
}

// RankingComputedPayload carries both ranked lists for a category.
type RankingComputedPayload struct {
	ChatID    string          `json:"chat_id"`
	Map       string          `json:"map"`
	TimeLimit int             `json:"time_limit"`
	Matches   int             `json:"matches"`
	Totals    []StandingEntry `json:"totals"`
	Averages  []StandingEntry `json:"averages"`
}

// RankingFailedPayload reports a failed ranking request.
type RankingFailedPayload struct {
	ChatID    string `json:"chat_id"`
	Map       string `json:"map"`
	TimeLimit int    `json:"time_limit"`
	Reason    string `json:"reason"`
}

// RecordsRequestedPayload asks for the best raw scores of every category.
type RecordsRequestedPayload struct {
	ChatID string `json:"chat_id"`
}

// RecordEntry is one high score.
type RecordEntry struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Score  int    `json:"score"`
	Link   string `json:"link"`
}

// CategoryRecords groups the high scores of one category.
type CategoryRecords struct {
	Map       string        `json:"map"`
	TimeLimit int           `json:"time_limit"`
	Top       []RecordEntry `json:"top"`
}

// RecordsComputedPayload carries the high scores of every category.
type RecordsComputedPayload struct {
	ChatID     string            `json:"chat_id"`
	Categories []CategoryRecords `json:"categories"`
}

// WhitelistAddRequestedPayload asks for a name to be whitelisted.
type WhitelistAddRequestedPayload struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
}

// WhitelistAddedPayload confirms a whitelist addition.
type WhitelistAddedPayload struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
	Added  bool   `json:"added"`
}

// SeasonRolloverRequestedPayload asks to close the current season. At is
// free text such as "now" or "yesterday 18:00".
type SeasonRolloverRequestedPayload struct {
	ChatID string `json:"chat_id"`
	At     string `json:"at,omitempty"`
}

// SeasonRolledOverPayload confirms a rollover.
type SeasonRolledOverPayload struct {
	ChatID       string    `json:"chat_id"`
	ClosedSeason int       `json:"closed_season"`
	ClosedAt     time.Time `json:"closed_at"`
	OpenedSeason int       `json:"opened_season"`
}

// SeasonRolloverFailedPayload reports a rejected rollover.
type SeasonRolloverFailedPayload struct {
	ChatID string `json:"chat_id"`
	Reason string `json:"reason"`
}
