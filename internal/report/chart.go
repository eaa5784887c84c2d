// Package report renders sweep results as an HTML error-rate chart and a
// PNG bandwidth plot.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/tlbeval/internal/metrics"
	"github.com/banshee-data/tlbeval/internal/sweep"
)

// AssetsHost is where the rendered page loads echarts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// barValue renders absent entries as echarts' missing-data marker.
func barValue(v metrics.Value) opts.BarData {
	x, ok := v.Get()
	if !ok {
		return opts.BarData{Value: "-"}
	}
	return opts.BarData{Value: x}
}

// ErrorRateChart writes an HTML page with the mean packet and byte error
// rate of every configuration in rows.
func ErrorRateChart(rows []sweep.Row, title string, w io.Writer) error {
	sums := sweep.Summarize(rows)
	if len(sums) == 0 {
		return fmt.Errorf("no runs to chart")
	}

	x := make([]string, 0, len(sums))
	packet := make([]opts.BarData, 0, len(sums))
	byteErr := make([]opts.BarData, 0, len(sums))
	for _, s := range sums {
		x = append(x, s.Point.ConfigKey())
		packet = append(packet, barValue(s.PacketError.Mean))
		byteErr = append(byteErr, barValue(s.ByteError.Mean))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "720px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d configurations, %d runs", len(sums), len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "scen,build,evict,check,file,sndwindow,rs", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "error rate", Min: 0, Max: 1}),
	)
	bar.SetXAxis(x).
		AddSeries("packet error", packet).
		AddSeries("byte error", byteErr)

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)
	return page.Render(w)
}
