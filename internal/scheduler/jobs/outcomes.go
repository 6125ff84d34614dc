package jobs

import (
	"context"
	"fmt"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/outcomes"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// OutcomeLabelJob runs the outcome labeler over events whose horizons have
// elapsed. Events without price coverage stay pending for the next run.
type OutcomeLabelJob struct {
	labeler  *outcomes.Labeler
	schedule string
	logger   *logger.Logger
}

// NewOutcomeLabelJob creates the labeling job with its cron spec from config.
func NewOutcomeLabelJob(labeler *outcomes.Labeler, schedule string, log *logger.Logger) *OutcomeLabelJob {
	return &OutcomeLabelJob{
		labeler:  labeler,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *OutcomeLabelJob) Name() string {
	return "outcome_labeler"
}

// Schedule returns the cron spec.
func (j *OutcomeLabelJob) Schedule() string {
	return j.schedule
}

// Run labels one batch across all horizons.
func (j *OutcomeLabelJob) Run(ctx context.Context) error {
	stats, err := j.labeler.Run(ctx)
	if err != nil {
		return fmt.Errorf("label outcomes: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"examined": stats.Examined,
		"labeled":  stats.Labeled,
		"skipped":  stats.Skipped,
	}).Info("Outcome labeling completed")
	return nil
}
