package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/ingest"
)

// scanCmd runs one scan directly, bypassing the queue. Ops use: the dedup
// layer makes re-running it safe at any time.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan of a scanner or a ticker and exit",
	Long: `Fetches, normalizes, scores, and stores events from one scanner or
for one ticker, then prints the run counters. Runs in-process without the
job queue, so cooldowns and admin gating do not apply. Ticker scans also
refresh the scores of events already stored.

Example:
  impactradar scan --scanner edgar
  impactradar scan --ticker ACME`,
	RunE: runScan,
}

var (
	scanScanner string
	scanTicker  string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanScanner, "scanner", "", "scanner key to run")
	scanCmd.Flags().StringVar(&scanTicker, "ticker", "", "ticker to scan across all scanners")
}

func runScan(cmd *cobra.Command, args []string) error {
	if (scanScanner == "") == (scanTicker == "") {
		return fmt.Errorf("exactly one of --scanner or --ticker is required")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pipe := a.pipeline(nil)
	ctx := context.Background()

	var total ingest.Stats
	if scanTicker != "" {
		total, err = scanOneTicker(ctx, a, pipe)
	} else {
		total, err = scanOneScanner(ctx, a, pipe)
	}
	if err != nil {
		return err
	}

	fmt.Printf("fetched=%d inserted=%d duplicates=%d rescored=%d rejected=%d\n",
		total.Fetched, total.Inserted, total.Duplicates, total.Rescored, total.Rejected)
	return nil
}

func scanOneScanner(ctx context.Context, a *app, pipe *ingest.Pipeline) (ingest.Stats, error) {
	scanner := a.registry.Get(scanScanner)
	if scanner == nil {
		return ingest.Stats{}, fmt.Errorf("unknown scanner %q (have: %s)",
			scanScanner, strings.Join(a.registry.Keys(), ", "))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Scan.FetchTimeout)
	records, err := scanner.Scan(fetchCtx)
	cancel()
	if err != nil {
		return ingest.Stats{}, fmt.Errorf("scan %s: %w", scanScanner, err)
	}

	return pipe.Run(ctx, scanner.Key(), records)
}

func scanOneTicker(ctx context.Context, a *app, pipe *ingest.Pipeline) (ingest.Stats, error) {
	ticker := strings.ToUpper(strings.TrimSpace(scanTicker))
	if !contracts.ValidTicker(ticker) {
		return ingest.Stats{}, fmt.Errorf("invalid ticker %q", scanTicker)
	}

	var total ingest.Stats
	for _, scanner := range a.registry.All() {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Scan.FetchTimeout)
		records, err := scanner.ScanTicker(fetchCtx, ticker)
		cancel()
		if err != nil {
			a.log.WithError(err).WithField("scanner", scanner.Key()).Warn("Scanner failed for ticker")
			continue
		}

		stats, err := pipe.Rescore(ctx, scanner.Key(), records)
		total.Add(stats)
		if err != nil {
			return total, fmt.Errorf("ingest %s records: %w", scanner.Key(), err)
		}
	}
	return total, nil
}
