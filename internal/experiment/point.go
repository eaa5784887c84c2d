package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tlbeval/internal/compare"
	"github.com/banshee-data/tlbeval/internal/config"
	"github.com/banshee-data/tlbeval/internal/metrics"
	"github.com/banshee-data/tlbeval/internal/monitoring"
	"github.com/banshee-data/tlbeval/internal/sweep"
)

// RecordPacketsFlag makes the endpoints write packets_log.csv.
const RecordPacketsFlag = "-DRECORD_PACKETS"

// Artifact names.
const (
	RemotePacketLog   = "packets_log.csv"
	SentPacketLog     = "snd_packets_log.csv"
	ReceivedPacketLog = "rcv_packets_log.csv"
)

var timeRe = regexp.MustCompile(`time: ([0-9.eE+-]+) s`)

// ParseEndpointTime extracts the "time: X s" report of an endpoint.
func ParseEndpointTime(stdout string) metrics.Value {
	m := timeRe.FindStringSubmatch(stdout)
	if m == nil {
		return metrics.Absent()
	}
	sec, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return metrics.Absent()
	}
	return metrics.Some(sec)
}

func seconds(v metrics.Value) time.Duration {
	s, ok := v.Get()
	if !ok || s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// RunPoint runs one point and writes its artifacts. The endpoints must
// already be built for p. On failure error.txt is written and no finish
// marker is left, so the point is retried by the next sweep.
func (r *Runner) RunPoint(ctx context.Context, p sweep.Point) (*sweep.Outcome, error) {
	dir := r.RunDir(p)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	o, err := r.runPoint(ctx, p, dir)
	if err != nil {
		if werr := r.fs.WriteFile(filepath.Join(dir, sweep.ErrorFile), []byte(err.Error()+"\n"), 0o644); werr != nil {
			monitoring.Logf("[experiment] failed to write error marker: %v", werr)
		}
		return nil, err
	}
	return o, nil
}

func (r *Runner) runPoint(ctx context.Context, p sweep.Point, dir string) (*sweep.Outcome, error) {
	o := &sweep.Outcome{RunID: r.newID(), Point: p, StartedAt: r.clock.Now()}
	scen := r.scenario(p.Scenario)

	stopLoad := r.startLoad(ctx, scen)
	loadStopped := false
	defer func() {
		if !loadStopped {
			stopLoad()
		}
	}()

	if err := r.clock.Sleep(ctx, scen.WarmupDuration()); err != nil {
		return nil, err
	}

	rcvOut, sndOut, timedOut, err := r.runEndpoints(ctx, p)
	if err != nil {
		return nil, err
	}
	o.TimedOut = timedOut
	o.ReceiverTime = ParseEndpointTime(rcvOut)
	o.SenderTime = ParseEndpointTime(sndOut)

	var result bytes.Buffer
	fmt.Fprintf(&result, "--- flags ---\n%s\n--- receiver stdout ---\n%s\n--- sender stdout (sndWindow: %d) ---\n%s\n---\n",
		p.BuildFlags, rcvOut, p.SendWindow, sndOut)
	if timedOut {
		result.WriteString("receiver timed out\n")
	}
	monitoring.Logf("[experiment] binaries executed")

	stopLoad()
	loadStopped = true

	if r.dryRun {
		o.FinishedAt = r.clock.Now()
		return o, nil
	}

	withLogs := slices.Contains(p.Flags(), RecordPacketsFlag)
	if err := r.fetch(ctx, p, dir, withLogs); err != nil {
		return nil, err
	}
	monitoring.Logf("[experiment] retrieved artifacts")

	if err := r.score(ctx, o, dir, withLogs); err != nil {
		return nil, err
	}
	for _, s := range []struct {
		title string
		rep   *compare.Report
	}{
		{"packetcompare", o.Packets},
		{"bytecompare", o.Bytes},
		{"recordcompare", o.Records},
	} {
		if s.rep == nil {
			continue
		}
		fmt.Fprintf(&result, "--- %s ---\n", s.title)
		if err := s.rep.WriteText(&result); err != nil {
			return nil, err
		}
	}
	result.WriteString("---\n")

	o.FinishedAt = r.clock.Now()
	doc, err := o.Marshal()
	if err != nil {
		return nil, err
	}
	if err := r.writeFile(dir, sweep.ResultFile, result.Bytes()); err != nil {
		return nil, err
	}
	if err := r.writeFile(dir, sweep.ResultsFile, doc); err != nil {
		return nil, err
	}
	if r.store != nil {
		if err := r.store.InsertRun(ctx, o); err != nil {
			r.addWarning(fmt.Sprintf("%s: failed to store run: %v", p.Key(), err))
		}
	}
	if err := r.writeFile(dir, sweep.FinishFile, []byte(o.FinishedAt.UTC().Format(time.RFC3339Nano))); err != nil {
		return nil, err
	}
	monitoring.Logf("[experiment] saved results")
	return o, nil
}

func (r *Runner) writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := r.fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (r *Runner) scenario(name string) config.Scenario {
	for _, s := range r.cfg.GetScenarios() {
		if s.Name == name {
			return s
		}
	}
	return config.Scenario{Name: name}
}

// startLoad launches the scenario's background commands and returns a
// function that stops them and waits for them to exit. Load failures are
// only logged.
func (r *Runner) startLoad(ctx context.Context, scen config.Scenario) func() {
	if len(scen.Load) == 0 {
		return func() {}
	}
	loadCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, l := range scen.Load {
		h := r.hosts[l.Host]
		monitoring.Logf("[experiment] run parallel on %s: %s", l.Host, l.Start)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Run(loadCtx, l.Start); err != nil && loadCtx.Err() == nil {
				monitoring.Logf("[experiment] load on %s exited: %v", l.Host, err)
			}
		}()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, l := range scen.Load {
				if l.Stop == "" {
					continue
				}
				if _, err := r.hosts[l.Host].Run(ctx, l.Stop); err != nil {
					monitoring.Logf("[experiment] failed to stop load on %s: %v", l.Host, err)
				}
			}
			cancel()
			wg.Wait()
		})
	}
}

// runEndpoints runs receiver and sender concurrently. A receiver still
// running at the timeout is killed and reported through timedOut.
func (r *Runner) runEndpoints(ctx context.Context, p sweep.Point) (rcvOut, sndOut string, timedOut bool, err error) {
	receiver := r.hosts[config.ReceiverHost]
	sender := r.hosts[config.SenderHost]
	remote := r.cfg.GetRemoteDir()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rctx, cancel := context.WithTimeout(gctx, r.cfg.GetReceiverTimeout())
		defer cancel()
		out, err := receiver.Run(rctx, fmt.Sprintf("cd %s && ./%s -o %s", remote, ReceiverBinary, p.ReceiveFile))
		rcvOut = out
		if err != nil && errors.Is(rctx.Err(), context.DeadlineExceeded) && gctx.Err() == nil {
			monitoring.Logf("[experiment] error: receiver timed out")
			timedOut = true
			if kerr := receiver.Kill(ctx, ReceiverBinary); kerr != nil {
				return kerr
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("receiver failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		out, err := sender.Run(gctx, fmt.Sprintf("cd %s && ./%s -f %s -w %d", remote, SenderBinary, p.SendFile, p.SendWindow))
		sndOut = out
		if err != nil {
			return fmt.Errorf("sender failed: %w", err)
		}
		return nil
	})
	err = g.Wait()
	return rcvOut, sndOut, timedOut, err
}

// fetch copies the raw files, and the packet logs when recorded, into dir.
func (r *Runner) fetch(ctx context.Context, p sweep.Point, dir string, withLogs bool) error {
	receiver := r.hosts[config.ReceiverHost]
	sender := r.hosts[config.SenderHost]
	remote := r.cfg.GetRemoteDir()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return receiver.FetchFile(gctx, remote+"/"+p.ReceiveFile, filepath.Join(dir, p.ReceiveFile))
	})
	g.Go(func() error {
		return sender.FetchFile(gctx, remote+"/"+p.SendFile, filepath.Join(dir, p.SendFile))
	})
	if withLogs {
		g.Go(func() error {
			return receiver.FetchFile(gctx, remote+"/"+RemotePacketLog, filepath.Join(dir, ReceivedPacketLog))
		})
		g.Go(func() error {
			return sender.FetchFile(gctx, remote+"/"+RemotePacketLog, filepath.Join(dir, SentPacketLog))
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to retrieve artifacts: %w", err)
	}
	return nil
}

// score compares the fetched artifacts. The packet comparison uses the
// receiver's own transfer time for bandwidth.
func (r *Runner) score(ctx context.Context, o *sweep.Outcome, dir string, withLogs bool) error {
	c := compare.NewComparator(r.fs)
	p := o.Point
	sent := filepath.Join(dir, p.SendFile)
	received := filepath.Join(dir, p.ReceiveFile)
	base := compare.Options{
		PayloadSize:      r.cfg.GetPayloadSize(),
		HeaderOffset:     r.cfg.GetHeaderOffset(),
		TSCHz:            r.cfg.GetTSCHz(),
		TransferDuration: seconds(o.ReceiverTime),
		SendDuration:     seconds(o.SenderTime),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := base
		opts.Mode = compare.ModePackets
		rep, err := c.CompareFiles(gctx, sent, received, opts)
		o.Packets = rep
		return err
	})
	g.Go(func() error {
		opts := base
		opts.Mode = compare.ModeBytes
		rep, err := c.CompareFiles(gctx, sent, received, opts)
		o.Bytes = rep
		return err
	})
	if withLogs {
		g.Go(func() error {
			opts := base
			opts.Mode = compare.ModeLogRecords
			rep, err := c.CompareFiles(gctx, filepath.Join(dir, SentPacketLog), filepath.Join(dir, ReceivedPacketLog), opts)
			o.Records = rep
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	return nil
}
