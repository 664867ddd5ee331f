package models

// JobState describes where an ingestion job is in its lifecycle.
type JobState string

const (
	// JobStatePending means the job has been enqueued but no worker has
	// picked it up yet. A poller that knows no job id at all must also be
	// answered with this state rather than an error.
	JobStatePending JobState = "pending"

	JobStateValidating JobState = "validating"
	JobStateEncrypting JobState = "encrypting"
	JobStateDone       JobState = "done"
	JobStateFailed     JobState = "failed"
)

// JobProgress is the polled progress blob of one ingestion job. Reporting
// is fire-and-forget: the worker overwrites the blob after every processed
// row and the HTTP endpoint reads whatever is current.
type JobProgress struct {
	// JobID is the identifier assigned when the job was enqueued.
	JobID string `json:"job_id"`

	// Current is the number of source rows processed so far.
	Current int64 `json:"current"`

	// Total is the row count computed before encryption started.
	Total int64 `json:"total"`

	// Percent is Current/Total rounded down; 0 when Total is unknown.
	Percent int `json:"percent"`

	// Description is a human-readable status line.
	Description string `json:"description"`

	// State is the job lifecycle state.
	State JobState `json:"state"`
}
