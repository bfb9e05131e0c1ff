// Command vanet-sim is the collaborator-facing driver around the library
// core: it parses a scenario file, constructs a Simulator, and runs it for a
// fixed number of ticks, printing a final snapshot. It never reaches into
// simulator internals except through the public pkg/core/simulator API.
// Grounded on cmd/chaos-runner/{main,run}.go's cobra command layout.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "vanet-sim",
	Short:   "VANET clustering and trust simulation",
	Long:    `vanet-sim runs a tick-discrete VANET simulation from a scenario file: mobile nodes self-organize into trust-weighted clusters with Byzantine-fault-tolerant leader election and authority monitoring.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
