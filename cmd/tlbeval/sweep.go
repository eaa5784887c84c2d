package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/tlbeval/internal/config"
	"github.com/banshee-data/tlbeval/internal/db"
	"github.com/banshee-data/tlbeval/internal/experiment"
	"github.com/banshee-data/tlbeval/internal/fsutil"
	"github.com/banshee-data/tlbeval/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
		dryRun     bool
		force      bool
		list       bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Build, run and score every point of an experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadExperimentConfig(configPath)
			if err != nil {
				return err
			}
			space, err := sweep.NewSpace(cfg)
			if err != nil {
				return err
			}

			if list {
				for _, p := range space.Points() {
					fmt.Fprintln(cmd.OutOrStdout(), p.Key())
				}
				return nil
			}

			logger := debug
			if dryRun {
				logger.Enabled = true
			}
			hosts, err := experiment.NewHosts(cfg, dryRun, logger)
			if err != nil {
				return err
			}
			opts := experiment.Options{Force: force, DryRun: dryRun}
			if dryRun {
				opts.FS = fsutil.NewMemoryFileSystem()
			}
			if dbPath != "" {
				store, err := db.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.Store = store
			}
			runner, err := experiment.NewRunner(cfg, hosts, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			state, err := runner.Run(ctx, space)
			fmt.Fprintf(cmd.OutOrStdout(), "points: %d, skipped: %d, completed: %d, timed out: %d, failed: %d\n",
				state.Total, state.Skipped, state.Completed, state.TimedOut, state.Failed)
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&configPath, "config", "c", "", "experiment config (.json, .yaml)")
	fl.StringVar(&dbPath, "db", "", "also store outcomes in this sqlite database")
	fl.BoolVar(&dryRun, "dry-run", false, "print remote commands instead of running them")
	fl.BoolVar(&force, "force", false, "rerun points that already finished")
	fl.BoolVar(&list, "list", false, "list the points and exit")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
