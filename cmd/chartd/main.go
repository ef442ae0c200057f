// Command chartd serves synchronized multi-pane charts over WebSocket and
// ships the tooling to seed and inspect the candle feed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "chartd",
	Short:         "Multi-pane chart engine with synchronized viewports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chartd:", err)
		os.Exit(1)
	}
}
