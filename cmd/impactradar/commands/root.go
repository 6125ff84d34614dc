// Package commands holds the impactradar CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "impactradar",
	Short: "Impact Radar - market event ingestion and scoring",
	Long: `Impact Radar ingests market-moving events from SEC EDGAR, FDA
announcements, press wires, and the earnings calendar, scores each with a
deterministic multi-factor engine blended with stored model adjustments,
and serves results over a REST API plus a live WebSocket stream.

Usage:
  impactradar serve            run the API, stream hub, workers, and scheduler
  impactradar worker           run a standalone scan worker pool
  impactradar scan --scanner edgar
  impactradar scan --ticker ACME
  impactradar outcomes         label realized outcomes once and exit`,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
