package matchqueue

// QueueName is the dedicated River queue for refresh jobs.
const QueueName = "match_refresh"

// RefreshMatchJob scrapes and reconciles one match. Only Link takes part in
// uniqueness, so a link is refreshed by at most one job at a time.
type RefreshMatchJob struct {
	Link   string `json:"link" river:"unique"`
	ChatID string `json:"chat_id,omitempty"`
}

// Kind returns the job type identifier for River
func (RefreshMatchJob) Kind() string { return "match_refresh" }

// EnqueueResult reports the outcome of an enqueue.
type EnqueueResult struct {
	JobID     int64
	Duplicate bool
}
