package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hytale-lab",
		Short: "Protocol analysis toolkit for the Hytale game protocol",
		Long: `hytale-lab decodes, mutates and replays the length-prefixed UDP game
protocol, validates the server's phase state machine, and collects
security findings for bug bounty reporting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newFuzzCmd())
	rootCmd.AddCommand(newSuiteCmd())
	rootCmd.AddCommand(newTraceCmd())
	rootCmd.AddCommand(newTimingCmd())
	rootCmd.AddCommand(newCaptureCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newBrowseCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
