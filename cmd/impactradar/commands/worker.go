package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/jobs"
)

// workerCmd runs a standalone scan worker pool. Useful for scaling scan
// throughput separately from the API process; the queue in Postgres keeps
// concurrent pools off each other's jobs.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a standalone scan worker pool",
	Long: `Drains the scan job queue without serving the API. Events ingested
by a standalone worker are persisted and visible through the pull endpoints;
live stream delivery only happens for events ingested inside a serve process.

Example:
  impactradar worker
  SCAN_WORKERS=8 impactradar worker`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pool := jobs.NewWorkerPool(a.jobRepo, a.registry, a.pipeline(nil), a.cfg, a.log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pool.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down workers")
	pool.Stop()
	cancel()
	return nil
}
