package experiment

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tlbeval/internal/config"
	"github.com/banshee-data/tlbeval/internal/monitoring"
	"github.com/banshee-data/tlbeval/internal/sweep"
)

// Endpoint binary names, both locally under bin/ and in the remote dir.
const (
	ReceiverBinary = "receiver"
	SenderBinary   = "sender"
)

// Build compiles the endpoints with the point's flags, stops any stale
// endpoint processes and installs the new binaries.
func (r *Runner) Build(ctx context.Context, p sweep.Point) error {
	local := r.hosts[config.LocalHost]
	receiver := r.hosts[config.ReceiverHost]
	sender := r.hosts[config.SenderHost]

	buildCmd := fmt.Sprintf("cd %s && make CFLAGS=\"%s\"", r.cfg.GetSrcDir(), p.BuildFlags)
	if out, err := local.Run(ctx, buildCmd); err != nil {
		return fmt.Errorf("build failed (flags: %s): %w\n%s", p.BuildFlags, err, out)
	}
	monitoring.Logf("[experiment] compiled (flags: %s)", p.BuildFlags)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return receiver.Kill(gctx, ReceiverBinary) })
	g.Go(func() error { return sender.Kill(gctx, SenderBinary) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to stop stale endpoints: %w", err)
	}

	remote := r.cfg.GetRemoteDir()
	bin := r.cfg.GetBinDir()
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		return receiver.CopyFile(gctx, filepath.Join(bin, ReceiverBinary), remote+"/"+ReceiverBinary)
	})
	g.Go(func() error {
		return sender.CopyFile(gctx, filepath.Join(bin, SenderBinary), remote+"/"+SenderBinary)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to install binaries: %w", err)
	}
	monitoring.Logf("[experiment] binaries copied")

	flags := p.BuildFlags
	r.builtFlags = &flags
	return nil
}
