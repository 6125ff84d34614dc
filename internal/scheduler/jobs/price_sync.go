package jobs

import (
	"context"
	"fmt"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/marketdata"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// PriceSyncJob pulls daily bars for the benchmark and every active ticker.
// Fresh prices feed both the scoring context and the outcome labeler.
type PriceSyncJob struct {
	syncer   *marketdata.Syncer
	schedule string
	logger   *logger.Logger
}

// NewPriceSyncJob creates the price sync job with its cron spec from config.
func NewPriceSyncJob(syncer *marketdata.Syncer, schedule string, log *logger.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		syncer:   syncer,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron spec.
func (j *PriceSyncJob) Schedule() string {
	return j.schedule
}

// Run syncs daily bars. Per-ticker failures are absorbed by the syncer; the
// job fails only when the benchmark itself cannot be refreshed.
func (j *PriceSyncJob) Run(ctx context.Context) error {
	rows, err := j.syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync daily prices: %w", err)
	}

	j.logger.WithField("rows", rows).Info("Daily price sync completed")
	return nil
}
