package report

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/tlbeval/internal/sweep"
)

// seriesKey groups configurations that differ only in send window.
func seriesKey(p sweep.Point) string {
	return strings.Join([]string{p.Scenario, "b" + strconv.Itoa(p.Build), strconv.Itoa(p.Evictions), p.Checksum, p.SendFile, "rs" + strconv.Itoa(p.ReedSolomon)}, ",")
}

// BandwidthSeries returns, per series key, the mean bandwidth against send
// window, sorted by window. Configurations without a bandwidth are left out.
func BandwidthSeries(rows []sweep.Row) map[string]plotter.XYs {
	out := make(map[string]plotter.XYs)
	for _, s := range sweep.Summarize(rows) {
		bw, ok := s.Bandwidth.Mean.Get()
		if !ok {
			continue
		}
		k := seriesKey(s.Point)
		out[k] = append(out[k], plotter.XY{X: float64(s.Point.SendWindow), Y: bw})
	}
	for _, pts := range out {
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	}
	return out
}

// BandwidthPlot saves a line plot of mean bandwidth (kB/s) against send
// window to path. The format follows the extension.
func BandwidthPlot(rows []sweep.Row, title, path string) error {
	series := BandwidthSeries(rows)
	if len(series) == 0 {
		return fmt.Errorf("no bandwidth data to plot")
	}

	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Send window"
	p.Y.Label.Text = "Bandwidth (kB/s)"
	p.Add(plotter.NewGrid())

	colors := generateColors(len(keys))
	for i, k := range keys {
		line, points, err := plotter.NewLinePoints(series[k])
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		points.Color = colors[i]
		p.Add(line, points)
		p.Legend.Add(k, line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// generateColors returns n evenly spaced hues.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
