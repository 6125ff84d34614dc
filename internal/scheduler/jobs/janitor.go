package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// JobJanitorJob fails scan jobs stuck in running longer than the stale age.
// A job only gets stuck when its worker died mid-run; failing it makes the
// scope key eligible for a fresh scan, which is safe because ingestion
// deduplicates.
type JobJanitorJob struct {
	jobs     contracts.JobRepository
	staleAge time.Duration
	schedule string
	logger   *logger.Logger
}

// NewJobJanitorJob creates the janitor with its cron spec from config.
func NewJobJanitorJob(jobRepo contracts.JobRepository, staleAge time.Duration, schedule string, log *logger.Logger) *JobJanitorJob {
	return &JobJanitorJob{
		jobs:     jobRepo,
		staleAge: staleAge,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *JobJanitorJob) Name() string {
	return "job_janitor"
}

// Schedule returns the cron spec.
func (j *JobJanitorJob) Schedule() string {
	return j.schedule
}

// Run sweeps once.
func (j *JobJanitorJob) Run(ctx context.Context) error {
	failed, err := j.jobs.FailStale(ctx, j.staleAge)
	if err != nil {
		return fmt.Errorf("fail stale jobs: %w", err)
	}

	if failed > 0 {
		j.logger.WithField("failed", failed).Warn("Stale running jobs repaired")
	}
	return nil
}
