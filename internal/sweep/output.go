package sweep

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/banshee-data/tlbeval/internal/metrics"
)

// Column names shared by the raw and summary CSV files.
var configColumns = []string{"scen", "build", "evict", "check", "file", "sndwindow", "rs"}

// CSVWriter wraps csv.Writer with methods for sweep output.
type CSVWriter struct {
	Summary *csv.Writer
	Raw     *csv.Writer
}

// NewCSVWriter creates a new CSVWriter. Either writer may be nil.
func NewCSVWriter(summary, raw io.Writer) *CSVWriter {
	c := &CSVWriter{}
	if summary != nil {
		c.Summary = csv.NewWriter(summary)
	}
	if raw != nil {
		c.Raw = csv.NewWriter(raw)
	}
	return c
}

// FormatRawHeaders returns the raw CSV header.
func FormatRawHeaders() []string {
	h := append([]string{}, configColumns...)
	return append(h, "iter", "bandwidth", "byteerror", "packeterror")
}

// FormatSummaryHeaders returns the summary CSV header.
func FormatSummaryHeaders() []string {
	h := append([]string{}, configColumns...)
	return append(h, "runs",
		"bandwidth_mean", "bandwidth_stddev",
		"byteerror_mean", "byteerror_stddev",
		"packeterror_mean", "packeterror_stddev")
}

// WriteHeaders writes the headers to both files.
func (c *CSVWriter) WriteHeaders() error {
	if c.Summary != nil {
		if err := c.Summary.Write(FormatSummaryHeaders()); err != nil {
			return err
		}
	}
	if c.Raw != nil {
		if err := c.Raw.Write(FormatRawHeaders()); err != nil {
			return err
		}
	}
	return nil
}

func configFields(p Point) []string {
	return []string{
		p.Scenario,
		strconv.Itoa(p.Build),
		strconv.Itoa(p.Evictions),
		p.Checksum,
		p.SendFile,
		strconv.Itoa(p.SendWindow),
		strconv.Itoa(p.ReedSolomon),
	}
}

// cell renders absent values as an empty field.
func cell(v metrics.Value) string {
	x, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// WriteRawRow writes one run.
func (c *CSVWriter) WriteRawRow(r Row) error {
	if c.Raw == nil {
		return nil
	}
	row := append(configFields(r.Point), strconv.Itoa(r.Point.Iteration),
		cell(r.Bandwidth), cell(r.ByteError), cell(r.PacketError))
	return c.Raw.Write(row)
}

// WriteSummary writes one configuration aggregate.
func (c *CSVWriter) WriteSummary(s Summary) error {
	if c.Summary == nil {
		return nil
	}
	row := append(configFields(s.Point), strconv.Itoa(s.Runs),
		cell(s.Bandwidth.Mean), cell(s.Bandwidth.Stddev),
		cell(s.ByteError.Mean), cell(s.ByteError.Stddev),
		cell(s.PacketError.Mean), cell(s.PacketError.Stddev))
	return c.Summary.Write(row)
}

// WriteAll writes headers, every row and the summaries of rows.
func (c *CSVWriter) WriteAll(rows []Row) error {
	if err := c.WriteHeaders(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := c.WriteRawRow(r); err != nil {
			return err
		}
	}
	for _, s := range Summarize(rows) {
		if err := c.WriteSummary(s); err != nil {
			return err
		}
	}
	return c.Flush()
}

// Flush flushes both writers and reports the first write error.
func (c *CSVWriter) Flush() error {
	for _, w := range []*csv.Writer{c.Summary, c.Raw} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return nil
}
