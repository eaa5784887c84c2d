package stream

import "fmt"

// ExtractBytes returns one unit per byte of buf, in file order.
func ExtractBytes(role Role, buf []byte) Sequence {
	units := make([]Unit, len(buf))
	for i, b := range buf {
		units[i] = Unit([]byte{b})
	}
	return Sequence{role: role, origin: OriginBytes, units: units}
}

// ExtractPackets partitions buf into consecutive payloadSize chunks. A short
// final chunk still counts as one unit, so the sequence has
// ceil(len(buf)/payloadSize) units.
func ExtractPackets(role Role, buf []byte, payloadSize int) (Sequence, error) {
	if payloadSize <= 0 {
		return Sequence{}, fmt.Errorf("payload size must be positive, got %d: %w", payloadSize, ErrInvalidArgument)
	}

	n := (len(buf) + payloadSize - 1) / payloadSize
	units := make([]Unit, 0, n)
	for off := 0; off < len(buf); off += payloadSize {
		end := off + payloadSize
		if end > len(buf) {
			end = len(buf)
		}
		units = append(units, Unit(buf[off:end]))
	}
	return Sequence{role: role, origin: OriginPackets, units: units}, nil
}
