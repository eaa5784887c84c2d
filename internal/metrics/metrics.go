// Package metrics derives channel quality figures from alignment counts.
package metrics

import (
	"time"

	"github.com/banshee-data/tlbeval/internal/align"
)

// Params are the externally measured inputs to Calculate.
type Params struct {
	// UnitSize is the number of data bytes per unit (1 in byte mode).
	UnitSize int
	// TransferDuration is the receiver wall-clock transfer time; zero when
	// it was not measured.
	TransferDuration time.Duration
	// SendDuration is the sender wall-clock time; zero when unknown.
	SendDuration time.Duration
	// SentBytes and ReceivedBytes are the byte lengths of the two
	// sequences. When both are zero the counts times UnitSize are used.
	SentBytes     int
	ReceivedBytes int
}

// Metrics is the derived record for one comparison. Bandwidths are in bytes
// per second.
type Metrics struct {
	Policy        string `json:"policy"`
	UnitSize      int    `json:"unit_size"`
	Sent          int    `json:"sent"`
	Received      int    `json:"received"`
	Correct       int    `json:"correct"`
	Lost          int    `json:"lost"`
	Inserted      int    `json:"inserted"`
	Corrupt       int    `json:"corrupt"`
	// SentBytes and ReceivedBytes count actual bytes, so a short final
	// packet contributes only its own length.
	SentBytes     int `json:"sent_bytes"`
	ReceivedBytes int `json:"received_bytes"`

	Correctness  Value `json:"correctness"`
	ErrorRate    Value `json:"error_rate"`
	Bandwidth    Value `json:"bandwidth"`
	RawBandwidth Value `json:"raw_bandwidth"`
	MaxBandwidth Value `json:"max_bandwidth"`
}

// Calculate turns alignment counts into a Metrics record. Every division is
// guarded: a zero sent count or an unmeasured duration yields an absent
// value rather than NaN or Inf.
func Calculate(r align.Result, p Params) Metrics {
	unitSize := p.UnitSize
	if unitSize <= 0 {
		unitSize = 1
	}

	m := Metrics{
		Policy:        r.Policy,
		UnitSize:      unitSize,
		Sent:          r.Sent,
		Received:      r.Received,
		Correct:       r.Correct,
		Lost:          r.Lost,
		Inserted:      r.Inserted,
		Corrupt:       r.Corrupt,
		SentBytes:     r.Sent * unitSize,
		ReceivedBytes: r.Received * unitSize,
	}
	if p.SentBytes > 0 || p.ReceivedBytes > 0 {
		m.SentBytes = p.SentBytes
		m.ReceivedBytes = p.ReceivedBytes
	}

	m.Correctness = Ratio(float64(r.Correct), float64(r.Sent))
	m.ErrorRate = m.Correctness.Map(func(c float64) float64 { return 1 - c })

	transfer := p.TransferDuration.Seconds()
	m.Bandwidth = Ratio(float64(r.Correct*unitSize), transfer)
	m.RawBandwidth = Ratio(float64(r.Received*unitSize), transfer)
	m.MaxBandwidth = Ratio(float64(r.Sent*unitSize), p.SendDuration.Seconds())
	return m
}

// KBps converts a bytes-per-second value to kB/s.
func KBps(v Value) Value {
	return v.Map(func(b float64) float64 { return b / 1000 })
}
