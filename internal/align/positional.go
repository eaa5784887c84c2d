package align

import "github.com/banshee-data/tlbeval/internal/stream"

// Positional compares units index by index. It assumes no loss or insertion
// happened: after any drift every later position reads as corrupt.
type Positional struct{}

// Name implements Aligner.
func (Positional) Name() string { return PolicyPositional }

// Align implements Aligner.
func (Positional) Align(sent, received stream.Sequence) Result {
	r := Result{
		Policy:   PolicyPositional,
		Sent:     sent.Len(),
		Received: received.Len(),
	}
	r.Lost = max(0, r.Sent-r.Received)
	r.Inserted = max(0, r.Received-r.Sent)

	n := min(r.Sent, r.Received)
	for i := 0; i < n; i++ {
		if sent.At(i) == received.At(i) {
			r.Correct++
		} else {
			r.Corrupt++
		}
	}
	r.SendOffset = n
	return r
}
