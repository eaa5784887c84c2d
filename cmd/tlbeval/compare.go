package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/tlbeval/internal/align"
	"github.com/banshee-data/tlbeval/internal/compare"
)

type compareFlags struct {
	mode         string
	policy       string
	payloadSize  int
	headerOffset int
	udpPort      int
	transfer     time.Duration
	send         time.Duration
	tscHz        float64
	asJSON       bool
}

func newCompareCmd() *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "compare <sent> <received>",
		Short: "Align two captures and print integrity metrics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			rep, err := compare.NewComparator(nil).CompareFiles(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return rep.WriteText(cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.mode, "mode", "m", string(compare.ModePackets), "unit mode: bytes, packets, log-records, log-tokens, pcap")
	fl.StringVar(&f.policy, "policy", "", "alignment policy: positional or resync (default depends on mode)")
	fl.IntVar(&f.payloadSize, "payload-size", compare.DefaultPayloadSize, "packet payload size in bytes")
	fl.IntVar(&f.headerOffset, "header-offset", 0, "header bytes to drop from each log record")
	fl.IntVar(&f.udpPort, "udp-port", 0, "UDP port filter for pcap mode")
	fl.DurationVar(&f.transfer, "transfer-time", 0, "receiver transfer duration for bandwidth")
	fl.DurationVar(&f.send, "send-time", 0, "sender duration for the offered bandwidth")
	fl.Float64Var(&f.tscHz, "tsc-hz", 0, "timestamp counter frequency of log records")
	fl.BoolVar(&f.asJSON, "json", false, "print the report as JSON")
	return cmd
}

func (f *compareFlags) options() (compare.Options, error) {
	mode, err := compare.ParseMode(f.mode)
	if err != nil {
		return compare.Options{}, err
	}
	if f.payloadSize <= 0 {
		return compare.Options{}, fmt.Errorf("--payload-size must be positive, got %d", f.payloadSize)
	}
	if f.headerOffset < 0 {
		return compare.Options{}, fmt.Errorf("--header-offset must be non-negative, got %d", f.headerOffset)
	}
	opts := compare.Options{
		Mode:             mode,
		PayloadSize:      f.payloadSize,
		HeaderOffset:     f.headerOffset,
		UDPPort:          f.udpPort,
		TransferDuration: f.transfer,
		SendDuration:     f.send,
		TSCHz:            f.tscHz,
	}
	if f.policy != "" {
		a, err := align.ForName(f.policy)
		if err != nil {
			return compare.Options{}, err
		}
		opts.Aligner = a
	}
	return opts, nil
}
