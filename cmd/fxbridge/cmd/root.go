package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fxbridge",
	Short: "File-mediated bridge between a strategy process and a trading venue",
	Long: `fxbridge is the venue-side half of a file-mediated trading bridge.

It exchanges commands, responses and status snapshots with a strategy
process through a small set of shared JSON files, and embeds a mandatory
pre-trade risk gate plus a resilient order-submission routine: every order
passes the gate before it reaches the venue, and fill-convention rejections
are retried across the remaining conventions.

Commands:
  - Run the bridge control loop against a configured venue
  - Initialize and validate configuration files`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
