package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/outcomes"
)

// outcomesCmd runs the outcome labeler once. Normally the scheduler runs it
// daily; this exists for backfills and ops checks.
var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Label realized outcomes once and exit",
	Long: `Runs one labeling pass: every scored event whose 1/5/20-day horizon
has elapsed and that has price coverage gets its realized return, benchmark
return, abnormal return, and direction hit recorded. Events without coverage
stay pending for the next pass.

Example:
  impactradar outcomes`,
	RunE: runOutcomes,
}

func init() {
	rootCmd.AddCommand(outcomesCmd)
}

func runOutcomes(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	labeler := outcomes.NewLabeler(a.outcomeRepo, a.priceRepo, a.cfg, a.log.Zerolog())
	stats, err := labeler.Run(context.Background())
	if err != nil {
		return fmt.Errorf("label outcomes: %w", err)
	}

	fmt.Printf("examined=%d labeled=%d skipped=%d\n", stats.Examined, stats.Labeled, stats.Skipped)
	return nil
}
