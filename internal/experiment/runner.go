// Package experiment drives the channel endpoints across a sweep: it builds
// and installs them, runs each point under optional background load, pulls
// the artifacts back and scores them.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tlbeval/internal/config"
	"github.com/banshee-data/tlbeval/internal/deploy"
	"github.com/banshee-data/tlbeval/internal/fsutil"
	"github.com/banshee-data/tlbeval/internal/monitoring"
	"github.com/banshee-data/tlbeval/internal/sweep"
	"github.com/banshee-data/tlbeval/internal/timeutil"
)

// Host is a machine that takes part in a run. *deploy.Executor is the
// production implementation.
type Host interface {
	Run(ctx context.Context, command string) (string, error)
	CopyFile(ctx context.Context, src, dst string) error
	FetchFile(ctx context.Context, remotePath, localPath string) error
	Kill(ctx context.Context, process string) error
}

// OutcomeStore persists finished runs.
type OutcomeStore interface {
	InsertRun(ctx context.Context, o *sweep.Outcome) error
}

// Status is the lifecycle state of a Runner.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// State is a snapshot of sweep progress.
type State struct {
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Total       int        `json:"total"`
	Skipped     int        `json:"skipped"`
	Completed   int        `json:"completed"`
	Failed      int        `json:"failed"`
	TimedOut    int        `json:"timed_out"`
	Current     string     `json:"current,omitempty"`
	Error       string     `json:"error,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Options configure a Runner. Zero values select production defaults.
type Options struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock
	Store OutcomeStore
	// Force reruns points that already have a finish marker.
	Force bool
	// DryRun stops each point after the endpoints ran, before artifacts
	// are fetched or scored.
	DryRun bool
	// NewRunID overrides uuid generation.
	NewRunID func() string
}

// Runner executes the points of a sweep one at a time.
type Runner struct {
	cfg    *config.ExperimentConfig
	hosts  map[string]Host
	fs     fsutil.FileSystem
	clock  timeutil.Clock
	store  OutcomeStore
	force  bool
	dryRun bool
	newID  func() string

	builtFlags *string

	mu    sync.RWMutex
	state State
}

// NewRunner checks that hosts covers the receiver, the sender and every
// host scenario load targets. A missing local host is filled in.
func NewRunner(cfg *config.ExperimentConfig, hosts map[string]Host, opts Options) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("experiment config is required")
	}
	hs := make(map[string]Host, len(hosts)+1)
	for k, v := range hosts {
		hs[k] = v
	}
	if hs[config.LocalHost] == nil {
		hs[config.LocalHost] = deploy.NewExecutor("", "", "", "", false)
	}
	required := []string{config.ReceiverHost, config.SenderHost}
	for _, s := range cfg.GetScenarios() {
		for _, l := range s.Load {
			required = append(required, l.Host)
		}
	}
	for _, name := range required {
		if hs[name] == nil {
			return nil, fmt.Errorf("no executor for host %q", name)
		}
	}

	r := &Runner{
		cfg:    cfg,
		hosts:  hs,
		fs:     opts.FS,
		clock:  opts.Clock,
		store:  opts.Store,
		force:  opts.Force,
		dryRun: opts.DryRun,
		newID:  opts.NewRunID,
		state:  State{Status: StatusIdle},
	}
	if r.fs == nil {
		r.fs = fsutil.OSFileSystem{}
	}
	if r.clock == nil {
		r.clock = timeutil.RealClock{}
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r, nil
}

// NewHosts builds executors for every host named in cfg.
func NewHosts(cfg *config.ExperimentConfig, dryRun bool, logger deploy.Logger) (map[string]Host, error) {
	hosts := make(map[string]Host, len(cfg.Hosts)+1)
	names := map[string]string{config.LocalHost: ""}
	for name, target := range cfg.Hosts {
		names[name] = target
	}
	for name, target := range names {
		e, err := deploy.NewHostExecutor(target, cfg.GetSSHUser(), cfg.GetSSHKey(), dryRun)
		if err != nil {
			return nil, fmt.Errorf("host %s: %w", name, err)
		}
		e.SetLogger(logger)
		hosts[name] = e
	}
	return hosts, nil
}

// State returns a copy of the current progress.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.state
	s.Warnings = append([]string(nil), r.state.Warnings...)
	return s
}

func (r *Runner) update(f func(s *State)) {
	r.mu.Lock()
	f(&r.state)
	r.mu.Unlock()
}

func (r *Runner) addWarning(msg string) {
	monitoring.Logf("[experiment] WARNING: %s", msg)
	r.update(func(s *State) { s.Warnings = append(s.Warnings, msg) })
}

// RunDir is where the artifacts of p are stored.
func (r *Runner) RunDir(p sweep.Point) string {
	return filepath.Join(r.cfg.GetEvalDir(), p.Key())
}

// Finished reports whether p already has a finish marker.
func (r *Runner) Finished(p sweep.Point) bool {
	return r.fs.Exists(filepath.Join(r.RunDir(p), sweep.FinishFile))
}

// Pending returns the points of space that still need to run.
func (r *Runner) Pending(space *sweep.Space) []sweep.Point {
	var out []sweep.Point
	for _, p := range space.Points() {
		if r.force || !r.Finished(p) {
			out = append(out, p)
		}
	}
	return out
}

// Run executes every pending point. A failing point is recorded and the
// sweep moves on; a failing build or a cancelled context stops the sweep.
func (r *Runner) Run(ctx context.Context, space *sweep.Space) (State, error) {
	pending := r.Pending(space)
	now := r.clock.Now()
	r.update(func(s *State) {
		*s = State{
			Status:    StatusRunning,
			StartedAt: &now,
			Total:     space.Len(),
			Skipped:   space.Len() - len(pending),
		}
	})
	monitoring.Logf("[experiment] %d points, %d already finished", space.Len(), space.Len()-len(pending))

	err := r.runAll(ctx, pending)

	done := r.clock.Now()
	r.update(func(s *State) {
		s.CompletedAt = &done
		s.Current = ""
		if err != nil {
			s.Status = StatusError
			s.Error = err.Error()
		} else {
			s.Status = StatusComplete
		}
	})
	return r.State(), err
}

func (r *Runner) runAll(ctx context.Context, pending []sweep.Point) error {
	for i, p := range pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sweep stopped at point %d/%d: %w", i, len(pending), err)
		}

		key := p.Key()
		r.update(func(s *State) { s.Current = key })
		monitoring.Logf("[experiment] Point %d/%d: %s", i+1, len(pending), key)

		if r.builtFlags == nil || *r.builtFlags != p.BuildFlags {
			if err := r.Build(ctx, p); err != nil {
				return err
			}
		}

		o, err := r.RunPoint(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("sweep stopped at %s: %w", key, err)
			}
			r.addWarning(fmt.Sprintf("%s: %v", key, err))
			r.update(func(s *State) { s.Failed++ })
			continue
		}
		r.update(func(s *State) {
			s.Completed++
			if o.TimedOut {
				s.TimedOut++
			}
		})
	}
	return nil
}
