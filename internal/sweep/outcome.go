package sweep

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/tlbeval/internal/compare"
	"github.com/banshee-data/tlbeval/internal/metrics"
)

// Artifact file names inside a run directory.
const (
	ResultsFile = "results.json"
	ResultFile  = "result.txt"
	FinishFile  = "finish.txt"
	ErrorFile   = "error.txt"
)

// Outcome is the results.json document the runner writes for a point.
type Outcome struct {
	RunID      string    `json:"run_id"`
	Point      Point     `json:"point"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// TimedOut is set when the receiver was killed at the timeout.
	TimedOut bool `json:"timed_out"`
	// ReceiverTime and SenderTime are the endpoints' own "time: X s"
	// reports, in seconds.
	ReceiverTime metrics.Value `json:"receiver_time"`
	SenderTime   metrics.Value `json:"sender_time"`

	Packets *compare.Report `json:"packets,omitempty"`
	Bytes   *compare.Report `json:"bytes,omitempty"`
	Records *compare.Report `json:"records,omitempty"`
}

// Marshal encodes the outcome as indented JSON.
func (o *Outcome) Marshal() ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// UnmarshalOutcome decodes a results.json document.
func UnmarshalOutcome(data []byte) (*Outcome, error) {
	var o Outcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to decode outcome: %w", err)
	}
	return &o, nil
}

// Row is the flattened view of an outcome used for CSV export and reports.
type Row struct {
	Point Point
	// Bandwidth is the correct-packet goodput in kB/s.
	Bandwidth   metrics.Value
	ByteError   metrics.Value
	PacketError metrics.Value
}

// Row flattens the outcome. Missing comparisons give absent values.
func (o *Outcome) Row() Row {
	r := Row{Point: o.Point}
	if o.Packets != nil {
		r.Bandwidth = metrics.KBps(o.Packets.Metrics.Bandwidth)
		r.PacketError = o.Packets.Metrics.ErrorRate
	}
	if o.Bytes != nil {
		r.ByteError = o.Bytes.Metrics.ErrorRate
	}
	return r
}
