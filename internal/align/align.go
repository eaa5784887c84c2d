// Package align reconstructs which received units correspond to which sent
// units and classifies everything else as lost, inserted or corrupt.
package align

import (
	"fmt"
	"strings"

	"github.com/banshee-data/tlbeval/internal/stream"
)

// Result holds the classification counts of one alignment.
type Result struct {
	Policy   string `json:"policy"`
	Sent     int    `json:"sent"`
	Received int    `json:"received"`
	Correct  int    `json:"correct"`
	Lost     int    `json:"lost"`
	Inserted int    `json:"inserted"`
	// Corrupt is only counted by the positional policy.
	Corrupt int `json:"corrupt"`
	// SendOffset is the final send-side scan position (diagnostic only).
	SendOffset int `json:"send_offset"`
}

// Aligner computes a correspondence between a sent and a received sequence.
type Aligner interface {
	Name() string
	Align(sent, received stream.Sequence) Result
}

const (
	PolicyPositional = "positional"
	PolicyResync     = "resync"
)

// ForName returns the aligner registered under name.
func ForName(name string) (Aligner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyPositional:
		return Positional{}, nil
	case PolicyResync:
		return Resync{}, nil
	default:
		return nil, fmt.Errorf("unknown alignment policy %q (expected %s or %s)", name, PolicyPositional, PolicyResync)
	}
}
