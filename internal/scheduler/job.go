package scheduler

import (
	"context"
	"time"
)

// Job is one schedulable unit of background work.
type Job interface {
	// Name identifies the job in logs and history.
	Name() string

	// Schedule returns the cron spec (six fields, with seconds).
	Schedule() string

	// Run executes one pass of the job.
	Run(ctx context.Context) error
}

// JobResult records one execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent runs of one job.
type JobHistory struct {
	Results []JobResult
}

const historyLimit = 100

// Add appends a result, discarding the oldest past the limit.
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// SuccessRate reports the fraction of recorded runs that succeeded.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}

	succeeded := 0
	for _, r := range h.Results {
		if r.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(h.Results))
}
