package sweep

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/tlbeval/internal/metrics"
)

// MeanStddev calculates the mean and sample standard deviation of a slice.
// Returns (0, 0) for empty slices and a zero deviation for one sample.
func MeanStddev(xs []float64) (mean float64, stddev float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

// Stat summarises one metric across iterations. Absent samples are left
// out; with no present samples both figures are absent.
type Stat struct {
	N      int
	Mean   metrics.Value
	Stddev metrics.Value
}

func summarise(vs []metrics.Value) Stat {
	var xs []float64
	for _, v := range vs {
		if x, ok := v.Get(); ok {
			xs = append(xs, x)
		}
	}
	if len(xs) == 0 {
		return Stat{}
	}
	m, s := MeanStddev(xs)
	return Stat{N: len(xs), Mean: metrics.Some(m), Stddev: metrics.Some(s)}
}

// Summary aggregates the iterations of one configuration.
type Summary struct {
	// Point is the first iteration seen for the configuration.
	Point       Point
	Runs        int
	Bandwidth   Stat
	ByteError   Stat
	PacketError Stat
}

// Summarize groups rows by configuration, keeping first-seen order.
func Summarize(rows []Row) []Summary {
	type group struct {
		point             Point
		bw, byteE, packet []metrics.Value
	}
	var order []string
	groups := make(map[string]*group)
	for _, r := range rows {
		key := r.Point.ConfigKey()
		g, ok := groups[key]
		if !ok {
			g = &group{point: r.Point}
			groups[key] = g
			order = append(order, key)
		}
		g.bw = append(g.bw, r.Bandwidth)
		g.byteE = append(g.byteE, r.ByteError)
		g.packet = append(g.packet, r.PacketError)
	}

	out := make([]Summary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, Summary{
			Point:       g.point,
			Runs:        len(g.bw),
			Bandwidth:   summarise(g.bw),
			ByteError:   summarise(g.byteE),
			PacketError: summarise(g.packet),
		})
	}
	return out
}
