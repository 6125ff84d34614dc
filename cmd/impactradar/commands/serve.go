package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/api"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/api/handlers"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/hub"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/jobs"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/marketdata"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/outcomes"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scheduler"
	schedjobs "github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scheduler/jobs"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/redis"
)

// serveCmd runs the full service: API, stream hub, workers, scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, stream hub, scan workers, and scheduler",
	Long: `Starts the complete Impact Radar service in one process:

- REST API with per-plan quotas
- WebSocket stream of newly scored events
- scan worker pool draining the job queue
- cron scheduler (scanner sweeps, price sync, outcome labeling, janitor)

Example:
  impactradar serve
  impactradar serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	streamHub := hub.New(a.log)
	pipe := a.pipeline(streamHub)

	jobService := jobs.NewService(a.jobRepo, a.auditRepo, a.cfg, a.log)
	pool := jobs.NewWorkerPool(a.jobRepo, a.registry, pipe, a.cfg, a.log)

	quotes := marketdata.NewQuotesClient(a.cfg.Quotes, a.httpClient, a.log)
	syncer := marketdata.NewSyncer(quotes, a.priceRepo, a.companyRepo, a.cfg, a.log)
	labeler := outcomes.NewLabeler(a.outcomeRepo, a.priceRepo, a.cfg, a.log.Zerolog())

	sched := scheduler.New(a.log)
	for _, job := range []scheduler.Job{
		schedjobs.NewScannerSweepJob(jobService, a.registry, a.cfg.Schedule.ScannerSweep, a.log),
		schedjobs.NewPriceSyncJob(syncer, a.cfg.Schedule.PriceSync, a.log),
		schedjobs.NewOutcomeLabelJob(labeler, a.cfg.Schedule.Outcomes, a.log),
		schedjobs.NewJobJanitorJob(a.jobRepo, a.cfg.Scan.StaleJobAge, a.cfg.Schedule.JobJanitor, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name(), err)
		}
	}

	router := api.NewRouter(
		handlers.NewEventsHandler(a.eventRepo, a.log),
		handlers.NewJobsHandler(jobService, a.jobRepo, a.registry, a.log),
		handlers.NewOutcomesHandler(a.outcomeRepo, a.log),
		handlers.NewStreamHandler(streamHub, a.log),
		a.userRepo,
		redis.NewRateLimiter(a.rds, "radar"),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pool.Start(ctx)
	sched.Start()
	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("API server failed")
		}
	}()

	a.log.WithFields(map[string]interface{}{
		"port":     a.cfg.Port,
		"scanners": a.registry.Keys(),
		"workers":  a.cfg.Scan.Workers,
	}).Info("Impact Radar running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("Server shutdown failed")
	}

	sched.Stop()
	pool.Stop()
	cancel()

	a.log.Info("Stopped")
	return nil
}
