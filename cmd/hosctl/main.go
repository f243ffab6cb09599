// Command hosctl runs the Hours-of-Service aggregator and trip planner
// offline against JSON files, and applies database migrations.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "hosctl",
		Short:        "Offline tools for the ELD logbook",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log gaps, overlaps and violations to stderr")
	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelError
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newAggregateCmd(logger), newPlanCmd(), newMigrateCmd(logger))
	return root
}

// openInput opens path for reading; "-" is stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, fmt.Errorf("an input file is required (-f, use - for stdin)")
	}
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
