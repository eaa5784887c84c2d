package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/tlbeval/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		src      rowSource
		htmlPath string
		pngPath  string
		title    string
	)
	cmd := &cobra.Command{
		Use:   "report [eval-dir]",
		Short: "Render error-rate and bandwidth charts of finished runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if htmlPath == "" && pngPath == "" {
				return fmt.Errorf("nothing to render: set --html and/or --png")
			}
			rows, err := src.load(cmd, args)
			if err != nil {
				return err
			}

			if htmlPath != "" {
				f, err := os.Create(htmlPath)
				if err != nil {
					return err
				}
				if err := report.ErrorRateChart(rows, title, f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", htmlPath)
			}
			if pngPath != "" {
				if err := report.BandwidthPlot(rows, title, pngPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", pngPath)
			}
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().StringVar(&htmlPath, "html", "", "error-rate chart output")
	cmd.Flags().StringVar(&pngPath, "png", "", "bandwidth plot output")
	cmd.Flags().StringVar(&title, "title", "TLB channel sweep", "chart title")
	return cmd
}
