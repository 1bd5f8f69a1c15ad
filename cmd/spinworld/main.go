// Command spinworld runs the common-pool resource simulation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "spinworld",
		Short: "Self-organising networks around a common-pool resource",
		Long: `spinworld simulates particles that provide to and take from shared
resource pools, form networks when they meet, learn whether cheating pays,
and are monitored and sanctioned by their networks' institutions.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newReplayCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spinworld version %s\n", version)
		},
	}
}
