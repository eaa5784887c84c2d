package align

import "github.com/banshee-data/tlbeval/internal/stream"

// Step describes how one received unit was classified.
type Step struct {
	ReceivedIndex int
	OffsetBefore  int
	OffsetAfter   int
	Matched       bool
	// SentIndex is the matched sent position, or -1.
	SentIndex int
}

// Resync is the greedy loss/insertion tolerant aligner. Each received unit
// is matched to the earliest equal sent unit at or after the current send
// offset; skipped sent units are lost, unmatched received units are
// inserted. Matches are never revised.
type Resync struct {
	// Observer, when set, is called once per received unit.
	Observer func(Step)
}

// Name implements Aligner.
func (Resync) Name() string { return PolicyResync }

// Align implements Aligner.
func (a Resync) Align(sent, received stream.Sequence) Result {
	r := Result{
		Policy:   PolicyResync,
		Sent:     sent.Len(),
		Received: received.Len(),
	}

	offset := 0
	for ri := 0; ri < received.Len(); ri++ {
		unit := received.At(ri)
		step := Step{ReceivedIndex: ri, OffsetBefore: offset, SentIndex: -1}

		for si := offset; si < sent.Len(); si++ {
			if sent.At(si) == unit {
				r.Lost += si - offset
				offset = si + 1
				r.Correct++
				step.Matched = true
				step.SentIndex = si
				break
			}
		}
		if !step.Matched {
			r.Inserted++
		}

		step.OffsetAfter = offset
		if a.Observer != nil {
			a.Observer(step)
		}
	}

	r.Lost += sent.Len() - offset
	r.SendOffset = offset
	return r
}
