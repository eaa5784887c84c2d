package compare

import (
	"fmt"
	"io"

	"github.com/banshee-data/tlbeval/internal/metrics"
)

// WriteText renders the report in the key/value layout of result.txt.
func (r *Report) WriteText(w io.Writer) error {
	m := r.Metrics
	bandwidth := "n/a"
	if kb, ok := metrics.KBps(m.Bandwidth).Get(); ok {
		bandwidth = fmt.Sprintf("%.3f", kb)
	}
	_, err := fmt.Fprintf(w,
		"mode: %s\npolicy: %s\nsent: %d\nreceived: %d\ncorrect: %d\ncorrupt: %d\nlost: %d\ninserted: %d\ncorrectness: %s\nerrorRate: %s\nbandwidth: %s kB/s\n",
		r.Mode, m.Policy, m.Sent, m.Received, m.Correct, m.Corrupt, m.Lost, m.Inserted,
		m.Correctness, m.ErrorRate, bandwidth,
	)
	return err
}
