package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/tlbeval/internal/db"
	"github.com/banshee-data/tlbeval/internal/fsutil"
	"github.com/banshee-data/tlbeval/internal/sweep"
)

// rowSource selects where finished runs are read from.
type rowSource struct {
	dbPath   string
	scenario string
}

func (s *rowSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.dbPath, "db", "", "read runs from this sqlite database instead of an eval dir")
	cmd.Flags().StringVar(&s.scenario, "scenario", "", "only runs of this scenario (with --db)")
}

func (s *rowSource) load(cmd *cobra.Command, args []string) ([]sweep.Row, error) {
	if s.dbPath != "" {
		store, err := db.Open(s.dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		runs, err := store.ListRuns(cmd.Context(), s.scenario)
		if err != nil {
			return nil, err
		}
		rows := make([]sweep.Row, 0, len(runs))
		for i := range runs {
			rows = append(rows, runs[i].Row())
		}
		return rows, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("an eval directory or --db is required")
	}
	return sweep.Collect(fsutil.OSFileSystem{}, args[0])
}

func newCollectCmd() *cobra.Command {
	var (
		src         rowSource
		outPath     string
		summaryPath string
	)
	cmd := &cobra.Command{
		Use:   "collect [eval-dir]",
		Short: "Export finished runs as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := src.load(cmd, args)
			if err != nil {
				return err
			}

			var raw io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				raw = f
			}
			var summary io.Writer
			if summaryPath != "" {
				f, err := os.Create(summaryPath)
				if err != nil {
					return err
				}
				defer f.Close()
				summary = f
			}
			if err := sweep.NewCSVWriter(summary, raw).WriteAll(rows); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "collected %d runs\n", len(rows))
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "raw CSV output (default stdout)")
	cmd.Flags().StringVar(&summaryPath, "summary", "", "per-configuration summary CSV output")
	return cmd
}
