package ledger

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusPartial marks a run that finished with isolated item failures.
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Run is one invocation of the run workflow.
type Run struct {
	ID           string
	Slug         string
	Course       string
	Source       string
	LibraryDir   string
	Status       Status
	Submitted    int
	Skipped      int
	Failed       int
	Documents    int
	Archives     int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Finished reports whether the run has a final status.
func (r Run) Finished() bool {
	return r.Status != StatusRunning
}

// Elapsed is the wall time of a finished run, or zero.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Item is the recorded outcome of one lesson.
type Item struct {
	ID           int64
	RunID        string
	Position     int
	Lesson       string
	Source       string
	Output       string
	State        string
	Subtitle     string
	Thumbnail    string
	ErrorMessage string
	Elapsed      time.Duration
	CreatedAt    time.Time
}
