// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"errors"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	scanjobs "github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/jobs"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// ScannerSweepJob enqueues a scan for every registered scanner. It goes
// through the same admission path as manual triggers, so the scanner
// cooldown still applies; a cooldown rejection just means the previous
// sweep is recent enough.
type ScannerSweepJob struct {
	service  *scanjobs.Service
	registry *scanners.Registry
	schedule string
	logger   *logger.Logger
}

// NewScannerSweepJob creates the sweep job with its cron spec from config.
func NewScannerSweepJob(service *scanjobs.Service, registry *scanners.Registry, schedule string, log *logger.Logger) *ScannerSweepJob {
	return &ScannerSweepJob{
		service:  service,
		registry: registry,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ScannerSweepJob) Name() string {
	return "scanner_sweep"
}

// Schedule returns the cron spec.
func (j *ScannerSweepJob) Schedule() string {
	return j.schedule
}

// Run enqueues one scan per scanner. Cooldown rejections are expected and
// skipped; any other admission failure fails the sweep.
func (j *ScannerSweepJob) Run(ctx context.Context) error {
	caller := contracts.SystemCaller()

	enqueued := 0
	for _, key := range j.registry.Keys() {
		_, err := j.service.Enqueue(ctx, caller, contracts.ScopeScanner, key)
		if err != nil {
			var cooldownErr *scanjobs.CooldownError
			if errors.As(err, &cooldownErr) {
				j.logger.WithField("scanner", key).Debug("Sweep skipped, scanner cooling down")
				continue
			}
			return err
		}
		enqueued++
	}

	j.logger.WithField("enqueued", enqueued).Info("Scanner sweep enqueued")
	return nil
}
