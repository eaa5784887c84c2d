// Package stream turns captured channel artifacts (raw files, packet logs,
// pcap captures) into ordered sequences of comparable units.
package stream

import "fmt"

// Unit is one comparable element of a captured stream: a single byte, a
// fixed-size packet payload, or a log token. Two units are the same unit
// exactly when their bytes are equal.
type Unit string

// Role says which side of the channel produced a sequence.
type Role int

const (
	Sent Role = iota
	Received
)

func (r Role) String() string {
	switch r {
	case Sent:
		return "sent"
	case Received:
		return "received"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Origin records how a sequence was extracted.
type Origin int

const (
	OriginBytes Origin = iota
	OriginPackets
	OriginLogRecords
	OriginLogTokens
	OriginPCAP
)

func (o Origin) String() string {
	switch o {
	case OriginBytes:
		return "bytes"
	case OriginPackets:
		return "packets"
	case OriginLogRecords:
		return "log-records"
	case OriginLogTokens:
		return "log-tokens"
	case OriginPCAP:
		return "pcap"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Sequence is an immutable ordered list of units.
type Sequence struct {
	role   Role
	origin Origin
	units  []Unit
}

// NewSequence copies units into a new Sequence.
func NewSequence(role Role, origin Origin, units []Unit) Sequence {
	cp := make([]Unit, len(units))
	copy(cp, units)
	return Sequence{role: role, origin: origin, units: cp}
}

// Role returns the side of the channel the sequence was captured on.
func (s Sequence) Role() Role { return s.role }

// Origin returns the extraction mode that produced the sequence.
func (s Sequence) Origin() Origin { return s.origin }

// Len returns the number of units.
func (s Sequence) Len() int { return len(s.units) }

// ByteLen returns the total length of all units in bytes.
func (s Sequence) ByteLen() int {
	n := 0
	for _, u := range s.units {
		n += len(u)
	}
	return n
}

// At returns the unit at index i. It panics if i is out of range.
func (s Sequence) At(i int) Unit { return s.units[i] }

// Units returns a copy of the units.
func (s Sequence) Units() []Unit {
	cp := make([]Unit, len(s.units))
	copy(cp, s.units)
	return cp
}
