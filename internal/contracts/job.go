package contracts

import (
	"time"

	"github.com/google/uuid"
)

// JobScope selects what a scan job runs against.
type JobScope string

const (
	// ScopeScanner runs one registered scanner across all coverage.
	ScopeScanner JobScope = "scanner"
	// ScopeCompany runs every capable scanner against a single ticker.
	ScopeCompany JobScope = "company"
)

// JobStatus is a scan job's lifecycle state. Transitions are monotonic:
// queued -> running -> success | error.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobError   JobStatus = "error"
)

// ScanJob is one execution request against a scanner or a ticker.
type ScanJob struct {
	ID           uuid.UUID  `json:"id"`
	Scope        JobScope   `json:"scope"`
	ScopeKey     string     `json:"scope_key"`
	Status       JobStatus  `json:"status"`
	ItemsFound   int        `json:"items_found"`
	ItemsFetched int        `json:"items_fetched"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// NewScanJob creates a queued job for the given scope key.
func NewScanJob(scope JobScope, key string) *ScanJob {
	return &ScanJob{
		ID:       uuid.New(),
		Scope:    scope,
		ScopeKey: key,
		Status:   JobQueued,
	}
}

// IsTerminal reports whether the job has reached a final state.
func (j *ScanJob) IsTerminal() bool {
	return j.Status == JobSuccess || j.Status == JobError
}

// Duration returns the wall time the job spent running, zero if it has not
// started or not finished.
func (j *ScanJob) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// JobFilter narrows a job listing.
type JobFilter struct {
	Scope    JobScope
	ScopeKey string
	Status   JobStatus
	Limit    int
}
