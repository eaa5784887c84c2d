// Package compare wires extraction, alignment and metrics together for the
// inputs the channel endpoints produce: raw files, packet logs and pcaps.
package compare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tlbeval/internal/align"
	"github.com/banshee-data/tlbeval/internal/fsutil"
	"github.com/banshee-data/tlbeval/internal/metrics"
	"github.com/banshee-data/tlbeval/internal/stream"
)

// Mode selects how inputs are turned into units.
type Mode string

const (
	ModeBytes      Mode = "bytes"
	ModePackets    Mode = "packets"
	ModeLogRecords Mode = "log-records"
	ModeLogTokens  Mode = "log-tokens"
	ModePCAP       Mode = "pcap"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeBytes, ModePackets, ModeLogRecords, ModeLogTokens, ModePCAP:
		return m, nil
	}
	return "", fmt.Errorf("unknown comparison mode %q", s)
}

// DefaultPayloadSize is the packet payload size of the TLB channel
// endpoints, in bytes.
const DefaultPayloadSize = 30

// Options configure one comparison.
type Options struct {
	Mode Mode
	// PayloadSize is the packet size for ModePackets and the data size of a
	// record for ModeLogRecords. Defaults to DefaultPayloadSize.
	PayloadSize int
	// HeaderOffset is the number of payload bytes dropped from each log
	// record before tokenisation.
	HeaderOffset int
	// Aligner overrides the mode's default policy.
	Aligner align.Aligner
	// UDPPort filters pcap captures.
	UDPPort int

	TransferDuration time.Duration
	SendDuration     time.Duration
	// TSCHz converts log timestamps to durations. When set and no
	// TransferDuration is given, log comparisons derive it from the
	// received log's span.
	TSCHz float64
}

func (o Options) payloadSize() int {
	if o.PayloadSize <= 0 {
		return DefaultPayloadSize
	}
	return o.PayloadSize
}

func (o Options) aligner() align.Aligner {
	if o.Aligner != nil {
		return o.Aligner
	}
	if o.Mode == ModeBytes {
		return align.Positional{}
	}
	return align.Resync{}
}

func (o Options) unitSize() int {
	switch o.Mode {
	case ModeBytes, ModeLogTokens:
		return 1
	case ModePCAP:
		if o.PayloadSize > 0 {
			return o.PayloadSize
		}
		return 1
	default:
		return o.payloadSize()
	}
}

// Report is the outcome of one comparison.
type Report struct {
	Mode    Mode            `json:"mode"`
	Result  align.Result    `json:"result"`
	Metrics metrics.Metrics `json:"metrics"`
}

// CompareSequences aligns two already extracted sequences.
func CompareSequences(sent, received stream.Sequence, opts Options) *Report {
	a := opts.aligner()
	r := a.Align(sent, received)
	m := metrics.Calculate(r, metrics.Params{
		UnitSize:         opts.unitSize(),
		TransferDuration: opts.TransferDuration,
		SendDuration:     opts.SendDuration,
		SentBytes:        sent.ByteLen(),
		ReceivedBytes:    received.ByteLen(),
	})
	return &Report{Mode: opts.Mode, Result: r, Metrics: m}
}

// CompareBuffers compares two raw captures in ModeBytes or ModePackets.
func CompareBuffers(sent, received []byte, opts Options) (*Report, error) {
	switch opts.Mode {
	case ModeBytes:
		return CompareSequences(stream.ExtractBytes(stream.Sent, sent), stream.ExtractBytes(stream.Received, received), opts), nil
	case ModePackets:
		s, err := stream.ExtractPackets(stream.Sent, sent, opts.payloadSize())
		if err != nil {
			return nil, err
		}
		r, err := stream.ExtractPackets(stream.Received, received, opts.payloadSize())
		if err != nil {
			return nil, err
		}
		return CompareSequences(s, r, opts), nil
	default:
		return nil, fmt.Errorf("mode %q does not compare raw buffers", opts.Mode)
	}
}

// CompareLogs compares two packet logs in ModeLogRecords or ModeLogTokens.
// A malformed line in either log aborts the comparison.
func CompareLogs(sentLog, receivedLog string, opts Options) (*Report, error) {
	if opts.Mode != ModeLogRecords && opts.Mode != ModeLogTokens {
		return nil, fmt.Errorf("mode %q does not compare logs", opts.Mode)
	}

	sentRecords, err := stream.ParseLog(sentLog, opts.HeaderOffset)
	if err != nil {
		return nil, fmt.Errorf("sent log: %w", err)
	}
	receivedRecords, err := stream.ParseLog(receivedLog, opts.HeaderOffset)
	if err != nil {
		return nil, fmt.Errorf("received log: %w", err)
	}

	if opts.TransferDuration == 0 && opts.TSCHz > 0 {
		if first, last, ok := stream.Span(receivedRecords); ok {
			opts.TransferDuration = time.Duration(float64(last-first) / opts.TSCHz * float64(time.Second))
		}
	}

	var s, r stream.Sequence
	if opts.Mode == ModeLogTokens {
		s = stream.LogTokens(stream.Sent, sentRecords)
		r = stream.LogTokens(stream.Received, receivedRecords)
	} else {
		s = stream.LogUnits(stream.Sent, sentRecords)
		r = stream.LogUnits(stream.Received, receivedRecords)
	}
	return CompareSequences(s, r, opts), nil
}

// Comparator reads inputs through a FileSystem.
type Comparator struct {
	fs fsutil.FileSystem
}

// NewComparator returns a Comparator. A nil fs uses the real filesystem.
func NewComparator(fs fsutil.FileSystem) *Comparator {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Comparator{fs: fs}
}

// CompareFiles reads both inputs concurrently and compares them. Either
// input being unreadable is fatal and reported as a *ReadError.
func (c *Comparator) CompareFiles(ctx context.Context, sentPath, receivedPath string, opts Options) (*Report, error) {
	if opts.Mode == ModePCAP {
		return comparePCAP(sentPath, receivedPath, opts)
	}

	var sent, received []byte
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sent, err = c.read(ctx, stream.Sent, sentPath)
		return err
	})
	g.Go(func() error {
		var err error
		received, err = c.read(ctx, stream.Received, receivedPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch opts.Mode {
	case ModeLogRecords, ModeLogTokens:
		return CompareLogs(string(sent), string(received), opts)
	default:
		return CompareBuffers(sent, received, opts)
	}
}

func (c *Comparator) read(ctx context.Context, role stream.Role, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Role: role, Path: path, Err: err}
	}
	return data, nil
}

func comparePCAP(sentPath, receivedPath string, opts Options) (*Report, error) {
	s, err := stream.ReadPCAP(stream.Sent, sentPath, opts.UDPPort)
	if err != nil {
		return nil, &ReadError{Role: stream.Sent, Path: sentPath, Err: err}
	}
	r, err := stream.ReadPCAP(stream.Received, receivedPath, opts.UDPPort)
	if err != nil {
		return nil, &ReadError{Role: stream.Received, Path: receivedPath, Err: err}
	}
	return CompareSequences(s, r, opts), nil
}

// ReadError reports an input that could not be read.
type ReadError struct {
	Role stream.Role
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s input %s: %v", e.Role, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
