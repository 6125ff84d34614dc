package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/ingest"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// Runner ingests one batch of raw records. Rescore additionally refreshes
// the scores of events the batch rediscovers. *ingest.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, source string, records []contracts.RawRecord) (ingest.Stats, error)
	Rescore(ctx context.Context, source string, records []contracts.RawRecord) (ingest.Stats, error)
}

// WorkerPool drains the scan job queue. Each worker claims jobs one at a
// time; SKIP LOCKED in the claim keeps concurrent workers off each other's
// jobs. An adapter failure fails the job, never the worker.
type WorkerPool struct {
	jobs     contracts.JobRepository
	registry *scanners.Registry
	runner   Runner

	workers      int
	pollInterval time.Duration
	fetchTimeout time.Duration

	logger *logger.Logger
	stopCh chan struct{}
}

// NewWorkerPool wires the pool from config.
func NewWorkerPool(jobRepo contracts.JobRepository, registry *scanners.Registry, runner Runner, cfg *config.Config, log *logger.Logger) *WorkerPool {
	return &WorkerPool{
		jobs:         jobRepo,
		registry:     registry,
		runner:       runner,
		workers:      cfg.Scan.Workers,
		pollInterval: cfg.Scan.PollInterval,
		fetchTimeout: cfg.Scan.FetchTimeout,
		logger:       log.WithField("module", "worker"),
		stopCh:       make(chan struct{}),
	}
}

// Start runs the workers until the context is cancelled or Stop is called.
func (w *WorkerPool) Start(ctx context.Context) {
	w.logger.WithFields(map[string]interface{}{
		"workers":       w.workers,
		"poll_interval": w.pollInterval.String(),
	}).Info("Starting scan workers")

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()

	w.logger.Info("Scan workers stopped")
}

// Stop signals all workers to exit after their current job.
func (w *WorkerPool) Stop() {
	close(w.stopCh)
}

func (w *WorkerPool) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and runs jobs until the queue is empty.
func (w *WorkerPool) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		job, err := w.jobs.ClaimNext(ctx)
		if err != nil {
			w.logger.WithError(err).Error("Failed to claim scan job")
			return
		}
		if job == nil {
			return
		}
		w.run(ctx, job)
	}
}

// run executes one claimed job and records its outcome.
func (w *WorkerPool) run(ctx context.Context, job *contracts.ScanJob) {
	log := w.logger.WithFields(map[string]interface{}{
		"job_id":    job.ID.String(),
		"scope":     string(job.Scope),
		"scope_key": job.ScopeKey,
	})
	log.Info("Scan job started")

	stats, err := w.execute(ctx, job)
	if err != nil {
		log.WithError(err).Warn("Scan job failed")
		if markErr := w.jobs.MarkError(ctx, job.ID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to record job error")
		}
		return
	}

	if err := w.jobs.MarkSuccess(ctx, job.ID, stats.Inserted, stats.Fetched); err != nil {
		log.WithError(err).Error("Failed to record job success")
		return
	}

	log.WithFields(map[string]interface{}{
		"fetched":    stats.Fetched,
		"inserted":   stats.Inserted,
		"duplicates": stats.Duplicates,
		"rescored":   stats.Rescored,
		"rejected":   stats.Rejected,
	}).Info("Scan job finished")
}

func (w *WorkerPool) execute(ctx context.Context, job *contracts.ScanJob) (ingest.Stats, error) {
	switch job.Scope {
	case contracts.ScopeScanner:
		return w.runScanner(ctx, job.ScopeKey)
	case contracts.ScopeCompany:
		return w.runCompany(ctx, job.ScopeKey)
	default:
		return ingest.Stats{}, fmt.Errorf("unknown job scope %q", job.Scope)
	}
}

func (w *WorkerPool) runScanner(ctx context.Context, key string) (ingest.Stats, error) {
	scanner := w.registry.Get(key)
	if scanner == nil {
		return ingest.Stats{}, fmt.Errorf("unknown scanner %q", key)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	records, err := scanner.Scan(fetchCtx)
	cancel()
	if err != nil {
		return ingest.Stats{}, fmt.Errorf("scan %s: %w", key, err)
	}

	return w.runner.Run(ctx, scanner.Key(), records)
}

// runCompany fans one ticker across every registered scanner. Individual
// scanner failures degrade the result; the job only fails when no scanner
// produced anything or storage broke. Company scans rescore rediscovered
// events, so a targeted rescan refreshes stale scores.
func (w *WorkerPool) runCompany(ctx context.Context, ticker string) (ingest.Stats, error) {
	all := w.registry.All()

	var total ingest.Stats
	var failures []string
	for _, scanner := range all {
		fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
		records, err := scanner.ScanTicker(fetchCtx, ticker)
		cancel()
		if err != nil {
			w.logger.WithError(err).WithFields(map[string]interface{}{
				"scanner": scanner.Key(),
				"ticker":  ticker,
			}).Warn("Scanner failed for ticker")
			failures = append(failures, fmt.Sprintf("%s: %v", scanner.Key(), err))
			continue
		}

		stats, err := w.runner.Rescore(ctx, scanner.Key(), records)
		total.Add(stats)
		if err != nil {
			return total, fmt.Errorf("ingest %s records: %w", scanner.Key(), err)
		}
	}

	if len(all) > 0 && len(failures) == len(all) {
		return total, fmt.Errorf("all scanners failed: %s", strings.Join(failures, "; "))
	}
	return total, nil
}
