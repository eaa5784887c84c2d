// Command tlbeval scores what a lossy covert channel delivered against what
// was sent, and drives parameter sweeps of the channel endpoints.
package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/tlbeval/internal/monitoring"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "tlbeval",
		Short: "Channel alignment and integrity metrics",
		Long: `tlbeval aligns a received stream against the sent stream, counts
correct, lost, inserted and corrupt units, and derives error rate and
bandwidth. It can also build, run and score a sweep of channel
configurations on remote hosts.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			monitoring.SetLogger(newStderrLogger(cmd.ErrOrStderr()))
			debug = monitoring.Debug(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log executed commands")

	root.AddCommand(
		newCompareCmd(),
		newSweepCmd(),
		newCollectCmd(),
		newReportCmd(),
		newVersionCmd(),
	)
	return root
}

// newStderrLogger routes monitoring.Logf to the command's error stream.
func newStderrLogger(w io.Writer) func(format string, v ...interface{}) {
	return log.New(w, "", log.LstdFlags).Printf
}

// debug is the executor logger selected by --verbose.
var debug = monitoring.Debug(false)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
